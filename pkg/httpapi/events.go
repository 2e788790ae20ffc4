package httpapi

import "time"

// pullRequestEvent is a pull_request webhook payload, trimmed to the
// fields the Validate-job/Reconcile-job dispatch in webhook.go actually
// reads, mirroring the shape of prow/github/types.go's PullRequestEvent.
type pullRequestEvent struct {
	Action      string      `json:"action"`
	Number      int         `json:"number"`
	PullRequest pullRequest `json:"pull_request"`
	Repo        repo        `json:"repository"`
}

type pullRequest struct {
	User     user              `json:"user"`
	Base     pullRequestBranch `json:"base"`
	Head     pullRequestBranch `json:"head"`
	Merged   bool              `json:"merged"`
	MergedBy user              `json:"merged_by"`
	MergedAt *time.Time        `json:"merged_at"`
}

type pullRequestBranch struct {
	Ref string `json:"ref"`
	SHA string `json:"sha"`
}

type repo struct {
	Owner user   `json:"owner"`
	Name  string `json:"name"`
}

type user struct {
	Login string `json:"login"`
}

const (
	actionOpened         = "opened"
	actionReopened       = "reopened"
	actionSynchronize    = "synchronize"
	actionReadyForReview = "ready_for_review"
	actionClosed         = "closed"
)

// triggersValidate reports whether action should trigger a Validate job.
func triggersValidate(action string) bool {
	switch action {
	case actionOpened, actionReopened, actionSynchronize, actionReadyForReview:
		return true
	default:
		return false
	}
}
