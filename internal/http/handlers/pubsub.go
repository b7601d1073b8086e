package handlers

import (
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/padel-weekly/internal/processor"
	"github.com/mauv0809/padel-weekly/internal/pubsub"
	"github.com/mauv0809/padel-weekly/internal/tasks"
)

// SideEffectPushHandler runs side-effect tasks delivered by a Pub/Sub push
// subscription. Undecodable messages are acknowledged so they are not
// redelivered forever; a failed task answers 500 so Pub/Sub retries it.
func SideEffectPushHandler(runner processor.Runner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			log.Error("Failed to read request body", "error", err)
			http.Error(w, "Failed to read request body", http.StatusInternalServerError)
			return
		}
		log.Debug("Received side effect message", "bytes", len(body))

		task, err := pubsub.DecodePush(body)
		if err != nil {
			log.Error("Dropping undecodable side effect message", "error", err)
			w.WriteHeader(http.StatusNoContent)
			return
		}
		if tasks.IsDryRun(r.Context()) {
			task.DryRun = true
		}
		if err := runner.Run(r.Context(), task); err != nil {
			http.Error(w, "side effect failed", http.StatusInternalServerError)
			return
		}
		w.Write([]byte("OK"))
	}
}
