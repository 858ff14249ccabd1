package cli

import "github.com/rdmurugan/d-vecDB/client-sdk/Go/client"

// ExitCodeFor maps an error returned by Execute into a process exit code:
//
//	0  success (never reached here; only called when err != nil)
//	2  not found / already exists
//	3  the request was rejected as invalid
//	4  the server was unreachable or returned an unexpected error
func ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	vecErr, ok := err.(*client.VecDBError)
	if !ok {
		return 4
	}
	switch vecErr.Kind {
	case "not_found", "already_exists":
		return 2
	case "dimension_mismatch", "invalid_argument":
		return 3
	default:
		return 4
	}
}
