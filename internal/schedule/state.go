package schedule

// State is a step of the retrieval state machine. A run moves strictly
// forward through Authenticating, ResolvingSite, ResolvingFile and
// Downloading, ending in Responding or, at the first failure, Failed.
type State int

const (
	StateIdle State = iota
	StateAuthenticating
	StateResolvingSite
	StateResolvingFile
	StateDownloading
	StateResponding
	StateFailed
)

var stateNames = [...]string{
	StateIdle:           "Idle",
	StateAuthenticating: "Authenticating",
	StateResolvingSite:  "ResolvingSite",
	StateResolvingFile:  "ResolvingFile",
	StateDownloading:    "Downloading",
	StateResponding:     "Responding",
	StateFailed:         "Failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "Unknown"
	}

	return stateNames[s]
}
