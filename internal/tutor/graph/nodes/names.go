package nodes

// Graph node keys.
const (
	NodeSafetyGate   = "SafetyGate"
	NodeBlocked      = "Blocked"
	NodeRouter       = "Router"
	NodeTutorModel   = "TutorModel"
	NodeToolExecutor = "ToolExecutor"
	NodeFinalizer    = "Finalizer"
)
