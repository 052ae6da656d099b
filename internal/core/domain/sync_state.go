package domain

// SyncStatus is the tag of a SyncState.
type SyncStatus string

const (
	SyncIdle    SyncStatus = "idle"
	SyncLoading SyncStatus = "loading"
	SyncReady   SyncStatus = "ready"
	SyncError   SyncStatus = "error"
)

// SyncFailure explains an error SyncState.
type SyncFailure string

const (
	FailureNoProfile   SyncFailure = "no_profile"
	FailureFetchFailed SyncFailure = "fetch_failed"
)

// SyncState is the profile synchronization status of one client. Profile is
// set only when Status is SyncReady; Reason only when Status is SyncError.
type SyncState struct {
	Status  SyncStatus
	Profile *Profile
	Reason  SyncFailure
}

func Idle() SyncState    { return SyncState{Status: SyncIdle} }
func Loading() SyncState { return SyncState{Status: SyncLoading} }

func Ready(p *Profile) SyncState {
	return SyncState{Status: SyncReady, Profile: p.Clone()}
}

func Failed(reason SyncFailure) SyncState {
	return SyncState{Status: SyncError, Reason: reason}
}

// Clone returns a copy that shares nothing with s.
func (s SyncState) Clone() SyncState {
	s.Profile = s.Profile.Clone()
	return s
}

// AcceptsUpdate reports whether a written profile may replace the state
// directly, without a fetch.
func (s SyncStatus) AcceptsUpdate() bool {
	return s == SyncReady || s == SyncError
}
