package job

import (
	"fmt"

	"aggregate-news/config"
)

// Kind enumerates the scheduled job kinds
type Kind string

// The four job kinds, each its own scheduled invocation
const (
	Collect Kind = "COLLECT"
	Process Kind = "PROCESS"
	Relate  Kind = "RELATE"
	Analyze Kind = "ANALYZE"
)

func lockTimeout(kind Kind) int {
	switch kind {
	case Collect:
		return config.CollectLockTimeout
	case Process:
		return config.ProcessLockTimeout
	case Relate:
		return config.RelateLockTimeout
	default:
		return config.AnalyzeLockTimeout
	}
}

// Run dispatches one invocation of a job kind
func Run(params *config.Params, kind Kind, windowDays int) error {
	switch kind {
	case Collect:
		return CollectPosts(params, windowDays)
	case Process:
		return ProcessEntities(params)
	case Relate:
		return RelatePosts(params)
	case Analyze:
		return UpdateCTR(params)
	default:
		return fmt.Errorf("unknown job kind %q", kind)
	}
}
