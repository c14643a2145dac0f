package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/hamed0406/pagecheck/internal/domain"
	apimw "github.com/hamed0406/pagecheck/internal/httpapi/middleware"
	"github.com/hamed0406/pagecheck/internal/repo"
	"github.com/hamed0406/pagecheck/internal/scheduler"
)

type Server struct {
	Logger  *zap.Logger
	Runner  scheduler.Batch
	Reports repo.ReportStore
	Targets []domain.CheckTarget
	Metrics http.Handler // optional
}

func NewServer(l *zap.Logger, runner scheduler.Batch, rs repo.ReportStore, targets []domain.CheckTarget, metrics http.Handler) *Server {
	return &Server{Logger: l, Runner: runner, Reports: rs, Targets: targets, Metrics: metrics}
}

// Router wires the API. Triggering a run needs an admin key and is rate
// limited per client IP because each one hits the dev server; reading the
// latest reports accepts any key.
func (s *Server) Router(keys apimw.Keys, allowedOrigins []string, runRPM, runBurst int) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	if len(allowedOrigins) == 0 {
		r.Use(cors.AllowAll().Handler)
	} else {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: allowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type", "X-API-Key"},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if s.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.Metrics)
	}

	r.Route("/api/runs", func(r chi.Router) {
		r.With(apimw.RequireAdmin(keys), apimw.RateLimit(runRPM, runBurst)).Post("/", s.handleRun)
		r.With(apimw.RequireAny(keys)).Get("/latest", s.handleLatest)
	})

	return r
}

type fragmentView struct {
	Label    string `json:"label"`
	Fragment string `json:"fragment"`
	Found    bool   `json:"found"`
}

type reportView struct {
	ID            string            `json:"id"`
	URL           string            `json:"url"`
	StatusCode    *int              `json:"status_code"`
	Title         string            `json:"title,omitempty"`
	Error         string            `json:"error,omitempty"`
	Checks        []fragmentView    `json:"checks"`
	MissingModule domain.ModuleHint `json:"missing_module"`
	Verdict       domain.Verdict    `json:"verdict"`
	StartedAt     time.Time         `json:"started_at"`
	DurationMS    float64           `json:"duration_ms"`
}

func toView(r domain.RunReport) reportView {
	v := reportView{
		ID:            r.ID,
		URL:           r.Target.URL,
		Error:         r.ErrorMessage(),
		Checks:        make([]fragmentView, 0, len(r.Checks)),
		MissingModule: r.MissingModule,
		Verdict:       r.Verdict,
		StartedAt:     r.StartedAt,
		DurationMS:    float64(r.Duration.Microseconds()) / 1000,
	}
	if r.Result != nil {
		code := r.Result.StatusCode
		v.StatusCode = &code
		v.Title = r.Result.Title
	}
	for _, c := range r.Checks {
		v.Checks = append(v.Checks, fragmentView(c))
	}
	return v
}

func toViews(rs []domain.RunReport) []reportView {
	out := make([]reportView, 0, len(rs))
	for _, r := range rs {
		out = append(out, toView(r))
	}
	return out
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	reports := s.Runner.Run(r.Context(), s.Targets)
	for _, rep := range reports {
		if err := s.Reports.Append(r.Context(), rep); err != nil {
			s.Logger.Warn("api_append_error", zap.String("run_id", rep.ID), zap.Error(err))
		}
	}
	s.Logger.Info("api_run", zap.Int("targets", len(reports)), zap.String("request_id", chimw.GetReqID(r.Context())))
	writeJSON(w, http.StatusOK, toViews(reports))
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	latest, err := s.Reports.Latest(r.Context())
	if err != nil {
		s.Logger.Warn("api_latest_error", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "latest error"})
		return
	}
	writeJSON(w, http.StatusOK, toViews(latest))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
