package review

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/lewtec/polypmark/internal/domain"
	"github.com/lewtec/polypmark/internal/frames"
	"github.com/lewtec/polypmark/internal/repository"
)

// ReviewApp serves read-only pages over the local annotation database so
// a reviewer can inspect what has been marked without opening the editor.
type ReviewApp struct {
	Repo   *repository.AnnotationRepository
	Cache  *frames.Cache
	Config *Config
	Log    *slog.Logger
}

func pathParts(path string) []string {
	parts := strings.Split(path, "/")
	if len(parts) > 0 && parts[0] == "" {
		parts = parts[1:]
	}
	if len(parts) > 0 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	return parts
}

func (a *ReviewApp) GetHTTPHandler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/video/", func(w http.ResponseWriter, r *http.Request) {
		itemPath := pathParts(r.URL.Path)
		if len(itemPath) != 2 {
			http.NotFoundHandler().ServeHTTP(w, r)
			return
		}
		videoID, err := strconv.ParseInt(itemPath[1], 10, 64)
		if err != nil {
			http.NotFoundHandler().ServeHTTP(w, r)
			return
		}
		recs, err := a.Repo.ListByVideo(r.Context(), videoID)
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			a.Log.Error("while listing annotations", "video", videoID, "error", err)
			return
		}
		polyps, err := a.Repo.CountPolyps(r.Context(), videoID)
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			a.Log.Error("while counting polyps", "video", videoID, "error", err)
			return
		}

		var markdownBuilder strings.Builder
		fmt.Fprintf(&markdownBuilder, "# [<](/) Video %d\n", videoID)
		fmt.Fprintf(&markdownBuilder, "%d annotations over %d distinct polyps\n\n", len(recs), polyps)
		fmt.Fprintf(&markdownBuilder, "| Frame | Polyp | Box | Start | End | Notes |\n")
		fmt.Fprintf(&markdownBuilder, "|---|---|---|---|---|---|\n")
		for _, rec := range recs {
			end := "open"
			if rec.EndTime != nil {
				end = fmt.Sprintf("%.2fs", *rec.EndTime)
			}
			fmt.Fprintf(&markdownBuilder, "| %d | %d | %.0fx%.0f at (%.0f, %.0f) | %.2fs | %s | %s |\n",
				rec.FrameID, rec.PolypID, rec.Width, rec.Height, rec.X1, rec.Y1, rec.StartTime, end, rec.Content)
		}
		ExecTemplate(w, TemplateContent{Title: fmt.Sprintf("Video %d", videoID), Content: markdownBuilder.String()})
	})

	mux.HandleFunc("/asset/", func(w http.ResponseWriter, r *http.Request) {
		itemPath := pathParts(r.URL.Path)
		if len(itemPath) != 3 {
			http.NotFoundHandler().ServeHTTP(w, r)
			return
		}
		videoID, err := strconv.ParseInt(itemPath[1], 10, 64)
		if err != nil {
			http.NotFoundHandler().ServeHTTP(w, r)
			return
		}
		name := itemPath[2]
		data, err := a.Cache.Image(r.Context(), videoID, domain.FrameInfo{Path: name})
		if err != nil {
			var fe *domain.FetchError
			if errors.As(err, &fe) && fe.Status == http.StatusNotFound {
				http.NotFoundHandler().ServeHTTP(w, r)
				return
			}
			w.WriteHeader(http.StatusInternalServerError)
			a.Log.Error("while serving frame asset", "video", videoID, "frame", name, "error", err)
			return
		}
		w.Write(data)
	})

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFoundHandler().ServeHTTP(w, r)
			return
		}
		videos, err := a.Repo.Videos(r.Context())
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			a.Log.Error("while listing videos", "error", err)
			return
		}
		var markdownBuilder strings.Builder
		fmt.Fprintf(&markdownBuilder, "# Welcome to polypmark\n")
		fmt.Fprintf(&markdownBuilder, "> Review the polyp annotations stored in the local database.\n\n")
		if len(videos) == 0 {
			fmt.Fprintf(&markdownBuilder, "No annotations yet. Run the 'pull' subcommand to sync a video.\n")
		} else {
			fmt.Fprintf(&markdownBuilder, "## Videos\n\n")
			for _, id := range videos {
				fmt.Fprintf(&markdownBuilder, "- [Video %d](/video/%d)\n", id, id)
			}
		}
		ExecTemplate(w, TemplateContent{Title: "Welcome", Content: markdownBuilder.String()})
	})

	var handler http.Handler = mux
	handler = HTTPLogger(a.Log, handler)
	return handler
}
