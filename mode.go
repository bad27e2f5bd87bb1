package sanelog

import "os"

// Mode selects the output format for the whole process lifetime. It is
// computed once at setup and never changes afterwards.
type Mode int

const (
	// ModeLocal emits human-readable console lines for terminal use.
	ModeLocal Mode = iota
	// ModeContainer emits one quote-stripped JSON record per line for the
	// log-shipping agent to tail.
	ModeContainer
)

func (m Mode) String() string {
	if m == ModeContainer {
		return "container"
	}
	return "local"
}

// DefaultModeVar is injected by Kubernetes into every pod.
const DefaultModeVar = "KUBERNETES_PORT"

// DetectMode reports ModeContainer when DefaultModeVar is present in the
// environment. Only presence matters; the value is ignored. Absence is not
// an error, it simply selects ModeLocal.
func DetectMode() Mode {
	return DetectModeVar(DefaultModeVar)
}

// DetectModeVar is DetectMode against a caller-chosen variable, for hosts
// running under an orchestrator that injects a different marker.
func DetectModeVar(name string) Mode {
	if _, ok := os.LookupEnv(name); ok {
		return ModeContainer
	}
	return ModeLocal
}
