package http

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/aligner/pkg/utils/errutil"
	"github.com/secmon-lab/aligner/pkg/utils/logging"
	"github.com/slack-go/slack"
)

// Requests whose timestamp is further than this from now are rejected as replays
const slackRequestMaxAge = 5 * time.Minute

// verifySlackSignature checks the v0 signature Slack sends in X-Slack-Signature
// and rejects timestamps outside slackRequestMaxAge in either direction.
func verifySlackSignature(signingSecret, timestamp, signature string, body []byte) error {
	if timestamp == "" {
		return goerr.New("missing timestamp")
	}

	if signature == "" {
		return goerr.New("missing signature")
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return goerr.Wrap(err, "invalid timestamp")
	}

	now := time.Now().Unix()
	skew := now - ts
	if skew < 0 {
		skew = -skew
	}
	if skew > int64(slackRequestMaxAge.Seconds()) {
		return goerr.New("timestamp out of range", goerr.V("timestamp", timestamp), goerr.V("now", now))
	}

	baseString := fmt.Sprintf("v0:%s:%s", timestamp, body)
	mac := hmac.New(sha256.New, []byte(signingSecret))
	if _, err := mac.Write([]byte(baseString)); err != nil {
		return goerr.Wrap(err, "failed to compute HMAC")
	}
	expectedSignature := "v0=" + hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expectedSignature), []byte(signature)) {
		return goerr.New("signature mismatch")
	}

	return nil
}

// SlackSignatureMiddleware rejects requests that are not signed with the app's signing secret
func SlackSignatureMiddleware(signingSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			body, err := io.ReadAll(r.Body)
			if err != nil {
				errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to read request body"), http.StatusBadRequest)
				return
			}
			if err := r.Body.Close(); err != nil {
				logging.From(ctx).Error("failed to close request body", "error", err)
			}

			timestamp := r.Header.Get("X-Slack-Request-Timestamp")
			signature := r.Header.Get("X-Slack-Signature")

			if err := verifySlackSignature(signingSecret, timestamp, signature, body); err != nil {
				errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "slack signature verification failed"), http.StatusUnauthorized)
				return
			}

			r.Body = io.NopCloser(bytes.NewReader(body))
			next.ServeHTTP(w, r)
		})
	}
}

// slackCommandHandler answers a slash command by queueing a sync run.
// The reply is ephemeral so only the caller sees it.
func slackCommandHandler(trigger Trigger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		cmd, err := slack.SlashCommandParse(r)
		if err != nil {
			errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to parse slash command"), http.StatusBadRequest)
			return
		}

		logger := logging.From(ctx)
		logger.Info("Slash command received",
			"command", cmd.Command,
			"user_id", cmd.UserID,
			"channel_id", cmd.ChannelID,
		)

		text := "🔄 Sync run queued"
		if !trigger.Trigger() {
			text = "⏳ A sync run is already queued"
		}

		writeJSON(ctx, w, &slack.Msg{
			ResponseType: "ephemeral",
			Text:         text,
		})
	}
}
