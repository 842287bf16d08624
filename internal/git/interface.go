package git

import "context"

// BranchOracle answers the two questions the orchestration core has about a
// repository: which branches exist, and which one is checked out.
type BranchOracle interface {
	ListBranches(ctx context.Context, repoPath string) (map[string]struct{}, error)
	CurrentBranch(ctx context.Context, repoPath string) (string, error)
}
