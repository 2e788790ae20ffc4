// Package httpapi is CLOWarden's HTTP surface (spec.md §6): the webhook
// endpoint that feeds pkg/jobs, a health check, and the read-only
// organizations/changes-search API the audit trail is served through.
package httpapi

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/clowarden/clowarden/pkg/ghclient"
	"github.com/clowarden/clowarden/pkg/jobs"
	"github.com/clowarden/clowarden/pkg/service"
)

const checkRunName = "CLOWarden"

// WebhookServer validates and dispatches incoming GitHub webhooks, per
// spec.md §4.7's Validate-job/Reconcile-job flows. Grounded on
// prow/hook/server.go's ServeHTTP/demuxEvent split, adapted from prow's
// many event types and plugin fan-out down to the one event type and two
// job kinds CLOWarden cares about.
type WebhookServer struct {
	Orgs           map[string]service.Org
	Engine         *jobs.Engine
	Notifier       ghclient.Notifier
	Secret         []byte
	SecretFallback []byte
	Log            logrus.FieldLogger
}

func (s *WebhookServer) log() logrus.FieldLogger {
	if s.Log != nil {
		return s.Log
	}
	return logrus.StandardLogger()
}

// ServeHTTP implements http.Handler.
func (s *WebhookServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "error reading request body", http.StatusBadRequest)
		return
	}

	if !s.validSignature(r.Header.Get("X-Hub-Signature-256"), body) {
		http.Error(w, "invalid webhook signature", http.StatusBadRequest)
		return
	}

	fmt.Fprint(w, "Event received. Have a nice day.")

	eventType := r.Header.Get("X-GitHub-Event")
	if eventType != "pull_request" {
		s.log().WithField("event-type", eventType).Debug("ignoring unhandled webhook event type")
		return
	}

	var event pullRequestEvent
	if err := json.Unmarshal(body, &event); err != nil {
		s.log().WithError(err).Error("error parsing pull_request event")
		return
	}
	s.demuxPullRequest(event)
}

// validSignature accepts a signature computed against either the primary
// or the fallback webhook secret, so a secret can be rotated without a
// window where in-flight deliveries signed with the old secret are
// rejected.
func (s *WebhookServer) validSignature(header string, body []byte) bool {
	const prefix = "sha256="
	header = strings.TrimSpace(header)
	if !strings.HasPrefix(header, prefix) {
		return false
	}
	want, err := hex.DecodeString(strings.TrimPrefix(header, prefix))
	if err != nil {
		return false
	}
	if len(s.Secret) > 0 && hmac.Equal(want, macSum(body, s.Secret)) {
		return true
	}
	if len(s.SecretFallback) > 0 && hmac.Equal(want, macSum(body, s.SecretFallback)) {
		return true
	}
	return false
}

func macSum(body, secret []byte) []byte {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return mac.Sum(nil)
}

func (s *WebhookServer) demuxPullRequest(event pullRequestEvent) {
	orgName, org, ok := s.orgForRepo(event.Repo.Owner.Login, event.Repo.Name)
	if !ok {
		s.log().WithField("repo", event.Repo.Owner.Login+"/"+event.Repo.Name).Debug("pull request for unconfigured organization's repository")
		return
	}
	log := s.log().WithFields(logrus.Fields{"org": orgName, "pr": event.Number, "action": event.Action})

	ec := ghclient.ExecutionContext{InstallationID: org.InstallationID, Org: org.Name}

	switch {
	case triggersValidate(event.Action):
		s.enqueueValidate(log, ec, orgName, org, event)
	case event.Action == actionClosed && event.PullRequest.Merged:
		s.enqueueReconcile(orgName, event)
	default:
		log.Debug("ignoring pull request action")
	}
}

func (s *WebhookServer) enqueueValidate(log logrus.FieldLogger, ec ghclient.ExecutionContext, orgName string, org service.Org, event pullRequestEvent) {
	run := ghclient.CheckRun{Name: checkRunName, HeadSHA: event.PullRequest.Head.SHA, Status: "in_progress", Title: "Validating configuration changes"}
	checkRunID, err := s.Notifier.CreateCheckRun(context.Background(), ec, org.RepositoryName, run)
	if err != nil {
		log.WithError(err).Error("creating in-progress check run")
		return
	}
	s.Engine.Enqueue(jobs.ValidateJob{
		Org:      orgName,
		PRNumber: event.Number,
		PRHead: ghclient.Source{
			InstallationID: org.InstallationID,
			Owner:          event.Repo.Owner.Login,
			Repo:           event.Repo.Name,
			Ref:            event.PullRequest.Head.SHA,
		},
		CheckRunID: checkRunID,
	})
}

func (s *WebhookServer) enqueueReconcile(orgName string, event pullRequestEvent) {
	number := event.Number
	s.Engine.Enqueue(jobs.ReconcileJob{
		Org:         orgName,
		PRNumber:    &number,
		PRCreatedBy: event.PullRequest.User.Login,
		PRMergedBy:  event.PullRequest.MergedBy.Login,
		PRMergedAt:  event.PullRequest.MergedAt,
	})
}

// orgForRepo finds the configured organization whose config repository
// matches owner/name, since a pull_request webhook fires on that
// repository rather than on the organization resource itself.
func (s *WebhookServer) orgForRepo(owner, name string) (string, service.Org, bool) {
	for orgName, org := range s.Orgs {
		if strings.EqualFold(org.RepositoryOwner, owner) && strings.EqualFold(org.RepositoryName, name) {
			return orgName, org, true
		}
	}
	return "", service.Org{}, false
}
