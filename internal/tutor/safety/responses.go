package safety

import "github.com/nia-core/server/internal/tutor/model"

type cannedSet struct {
	crisis        string
	redirect      string
	parentBlocked string
	deflection    string
}

var canned = map[model.Language]cannedSet{
	model.English: {
		crisis: "I'm worried about you. Please talk to a trusted adult right away.\n\n" +
			"National Suicide Prevention Lifeline: 988\n" +
			"Crisis Text Line: Text HOME to 741741\n\n" +
			"You matter.",
		redirect:      "I can't help with that topic, but I'd love to help you learn! What are you studying?",
		parentBlocked: "I can't answer that question. Please ask about something else!",
		deflection:    "Let me think about that differently... Could you ask me in another way?",
	},
	model.Spanish: {
		crisis: "Me preocupas. Por favor, habla con un adulto de confianza ahora mismo.\n\n" +
			"Línea de Prevención del Suicidio y Crisis: 988\n" +
			"Línea de Texto de Crisis: envía HOLA al 741741\n\n" +
			"Tú importas.",
		redirect:      "No puedo ayudarte con ese tema, ¡pero me encantaría ayudarte a aprender! ¿Qué estás estudiando?",
		parentBlocked: "No puedo responder esa pregunta. ¡Por favor, pregunta sobre otra cosa!",
		deflection:    "Déjame pensarlo de otra manera... ¿Puedes preguntarme de otra forma?",
	},
}

func cannedFor(lang model.Language) cannedSet {
	if c, ok := canned[lang]; ok {
		return c
	}
	return canned[model.English]
}

// BlockedResponse builds the answer text for a question that failed the input gate.
func BlockedResponse(v model.SafetyVerdict, lang model.Language) string {
	c := cannedFor(lang)
	switch {
	case v.NeedsIntervention:
		return c.crisis
	case v.ParentBlocked:
		return c.parentBlocked
	default:
		return c.redirect
	}
}

// Deflection replaces generated text that failed output validation.
func Deflection(lang model.Language) string {
	return cannedFor(lang).deflection
}
