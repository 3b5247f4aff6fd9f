package code

// System-wide codes shared by every domain.
//
// Ranges:
//   - 200: success
//   - 400..499: request and domain rule failures
//   - 500: generic runtime failure
//   - 50001000..50001999: remote call failures
//   - 50003000..50003999: storage failures
//   - 5000xxxx (other): platform features (locks, tokens, empty steps)
var (
	Success       = New(SuccessCode, "operation succeeded")
	Fail          = New(500, "run error:{0}")
	Validation    = New(400, "invalid request:{0}")
	RPCError      = New(50001000, "rpc error:{0}")
	BizEmpty      = New(50002000, "business step returned no result:{0}")
	StorageError  = New(50003000, "storage error:{0}")
	LockError     = New(50004000, "distributed lock error:{0}")
	TokenRequired = New(50006000, "request requires BIZ_TOKEN")
	TokenInvalid  = New(50006001, "BIZ_TOKEN={0} is not available")
	Unknown       = New(-1, "unknown message")
)

const (
	rpcRangeEnd     = 50001999
	storageRangeEnd = 50003999
)

// System is the catalog of system-wide codes.
var System = MustCatalog("system",
	Success, Fail, Validation, RPCError, BizEmpty, StorageError,
	LockError, TokenRequired, TokenInvalid, Unknown,
)

// SuccessCode is the designated success code.
const SuccessCode = 200

// IsInfrastructure reports whether c lies in a range reserved for faults
// propagated from storage or remote-call collaborators.
func IsInfrastructure(c int) bool {
	return (c >= RPCError.Code && c <= rpcRangeEnd) ||
		(c >= StorageError.Code && c <= storageRangeEnd)
}
