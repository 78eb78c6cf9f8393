package engine

import "sync"

// visitKey identifies one (reference, profile) validation step in the call
// chain.
type visitKey struct {
	reference string
	profileID string
}

// visitedSet tracks (reference, profile) pairs across the whole call chain of
// one validation run. The set is append-only: pairs are never removed when a
// branch completes, so a reference chain that loops back is caught even when
// the loop spans several fetched documents.
type visitedSet struct {
	mu   sync.Mutex
	seen map[visitKey]struct{}
}

func newVisitedSet() *visitedSet {
	return &visitedSet{seen: make(map[visitKey]struct{})}
}

// checkAndAdd registers the pairs for a reference about to be followed and
// reports whether every pair was already present, which means following it
// again would re-enter the same validation. Profile-less references track
// under the empty profile id.
func (s *visitedSet) checkAndAdd(reference string, profileIDs []string) bool {
	if len(profileIDs) == 0 {
		profileIDs = []string{""}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all := true
	for _, id := range profileIDs {
		k := visitKey{reference: reference, profileID: id}
		if _, ok := s.seen[k]; !ok {
			all = false
			s.seen[k] = struct{}{}
		}
	}
	return all
}

// size returns the number of tracked pairs.
func (s *visitedSet) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}

// recordStatus is the lifecycle of one (node, profile) validation within a
// document.
type recordStatus int

const (
	recordPending recordStatus = iota
	recordSuccess
	recordFail
)

// recordKey identifies one (node, profile) pair within a document.
type recordKey struct {
	identity  string
	profileID string
}

// docRecords is the per-document record table. Success and Fail entries
// short-circuit re-validation of a node already checked against the same
// profile; a Pending entry marks work in progress somewhere in the run.
// Whether a Pending entry is a cycle depends on the branch that finds it,
// so that call is made against the branch's own path, not here.
//
// Unlike the visited set, records are scoped to one document: every fetched
// external document gets a fresh table.
type docRecords struct {
	mu      sync.Mutex
	records map[recordKey]recordStatus
}

func newDocRecords() *docRecords {
	return &docRecords{records: make(map[recordKey]recordStatus)}
}

// begin atomically claims a (node, profile) pair for validation. An unseen
// pair is marked Pending and claimed by the caller in the same critical
// section, so concurrent branches can never both claim it; otherwise the
// existing status is returned and claimed is false.
func (r *docRecords) begin(identity, profileID string) (status recordStatus, claimed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := recordKey{identity: identity, profileID: profileID}
	if status, ok := r.records[key]; ok {
		return status, false
	}
	r.records[key] = recordPending
	return recordPending, true
}

func (r *docRecords) set(identity, profileID string, status recordStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[recordKey{identity: identity, profileID: profileID}] = status
}

// runState carries the cycle-detection state of one validation run. The
// visited set and record table are shared by every branch of the run; path
// belongs to a single branch of the recursion and holds the (node, profile)
// pairs currently being validated on it. Only re-entering a pair on the own
// path is an in-document cycle; a concurrent sibling's in-progress pair is
// not.
type runState struct {
	visited *visitedSet
	records *docRecords
	path    map[recordKey]struct{}
}

func newRunState() *runState {
	return &runState{
		visited: newVisitedSet(),
		records: newDocRecords(),
		path:    make(map[recordKey]struct{}),
	}
}

// forDocument derives the state for a freshly fetched document: a new record
// table and path under the same call-chain visited set.
func (s *runState) forDocument() *runState {
	return &runState{
		visited: s.visited,
		records: newDocRecords(),
		path:    make(map[recordKey]struct{}),
	}
}

// forBranch derives the state for a concurrent conjunction branch: shared
// visited set and record table, private copy of the validation path.
func (s *runState) forBranch() *runState {
	path := make(map[recordKey]struct{}, len(s.path))
	for k := range s.path {
		path[k] = struct{}{}
	}
	return &runState{
		visited: s.visited,
		records: s.records,
		path:    path,
	}
}
