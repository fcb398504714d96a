package domain

// OperationKind names one of the independent AI request categories.
type OperationKind string

const (
	OperationCaption OperationKind = "caption"
	OperationEdit    OperationKind = "edit"
)

// RequestStatus is the lifecycle position of an operation kind.
type RequestStatus string

const (
	RequestIdle      RequestStatus = "idle"
	RequestPending   RequestStatus = "pending"
	RequestSucceeded RequestStatus = "succeeded"
	RequestFailed    RequestStatus = "failed"
)

// RequestState is the live state of one operation kind. Token is the
// generation of the invocation that last wrote the state.
type RequestState struct {
	Kind   OperationKind `json:"kind"`
	Status RequestStatus `json:"status"`
	Error  string        `json:"error,omitempty"`
	Token  uint64        `json:"token"`
}

// Pending reports whether the kind has an outstanding invocation.
func (s RequestState) Pending() bool { return s.Status == RequestPending }

// IdleState returns the initial state for kind.
func IdleState(kind OperationKind) RequestState {
	return RequestState{Kind: kind, Status: RequestIdle}
}
