package httpserver

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	appai "github.com/bryanwahyu/apptest-api/internal/application/ai"
	appapk "github.com/bryanwahyu/apptest-api/internal/application/apk"
	appexe "github.com/bryanwahyu/apptest-api/internal/application/exe"
	apphistory "github.com/bryanwahyu/apptest-api/internal/application/history"
	appweb "github.com/bryanwahyu/apptest-api/internal/application/web"
	domai "github.com/bryanwahyu/apptest-api/internal/domain/ai"
	domexe "github.com/bryanwahyu/apptest-api/internal/domain/exe"
	domain "github.com/bryanwahyu/apptest-api/internal/domain/history"
	"github.com/bryanwahyu/apptest-api/internal/middleware"
)

type Router struct {
	historySvc *apphistory.Service
	webSvc     *appweb.Service
	apkSvc     *appapk.Service
	exeSvc     *appexe.Service
	aiSvc      *appai.Service
	uploadDir  string
}

func NewRouter(historySvc *apphistory.Service, webSvc *appweb.Service, apkSvc *appapk.Service, exeSvc *appexe.Service, aiSvc *appai.Service, uploadDir string) http.Handler {
	r := &Router{
		historySvc: historySvc,
		webSvc:     webSvc,
		apkSvc:     apkSvc,
		exeSvc:     exeSvc,
		aiSvc:      aiSvc,
		uploadDir:  uploadDir,
	}
	mux := chi.NewRouter()

	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Route("/v1", func(rt chi.Router) {
		rt.Route("/history", func(h chi.Router) {
			h.Post("/", r.wrap(r.handleHistoryCreate))
			h.Get("/", r.wrap(r.handleHistoryList))
			h.Delete("/", r.wrap(r.handleHistoryClearAll))
			h.Get("/stats", r.wrap(r.handleHistoryStats))
			h.Get("/type/{type}", r.wrap(r.handleHistoryListByType))
			h.Delete("/type/{type}", r.wrap(r.handleHistoryClearByType))
			h.Delete("/{id}", r.wrap(r.handleHistoryDelete))
		})

		rt.Get("/web/audit", r.wrap(r.handleWebAudit))

		rt.Route("/apk", func(a chi.Router) {
			a.Post("/upload", r.wrap(r.handleApkUpload))
			a.Get("/reports", r.wrap(r.handleApkReports))
			a.Get("/reports/{id}", r.wrap(r.handleApkReport))
		})

		rt.Route("/exe", func(e chi.Router) {
			e.Post("/run", r.wrap(r.handleExeRun))
			e.Get("/results", r.wrap(r.handleExeResults))
			e.Get("/results/{id}", r.wrap(r.handleExeResult))
		})

		rt.Post("/ai/insights", r.wrap(r.handleAIReview))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// statusError carries an explicit HTTP status through the error return.
type statusError struct {
	code int
	msg  string
}

func (e *statusError) Error() string { return e.msg }

func errStatus(code int, msg string) error { return &statusError{code: code, msg: msg} }

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			var se *statusError
			if errors.As(err, &se) {
				http.Error(w, se.msg, se.code)
				return
			}
			if domain.IsValidation(err) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			if errors.Is(err, domain.ErrNotFound) || errors.Is(err, sql.ErrNoRows) {
				http.Error(w, "not found", http.StatusNotFound)
				return
			}
			if errors.Is(err, domai.ErrQuotaExceeded) {
				http.Error(w, "ai quota exceeded", http.StatusTooManyRequests)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

// userID pulls the resolved identity; every /v1 route requires one.
func userID(req *http.Request) (string, error) {
	user := middleware.GetUserFromContext(req.Context())
	if user == "" {
		return "", errStatus(http.StatusUnauthorized, "user identity not found")
	}
	if err := middleware.ValidateUserID(user); err != nil {
		return "", errStatus(http.StatusBadRequest, err.Error())
	}
	return user, nil
}

func writeJSON(w http.ResponseWriter, v any) error {
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(v)
}

// POST /v1/history
func (r *Router) handleHistoryCreate(w http.ResponseWriter, req *http.Request) error {
	user, err := userID(req)
	if err != nil {
		return err
	}

	var cmd apphistory.CreateEntryCommand
	if err := json.NewDecoder(req.Body).Decode(&cmd); err != nil {
		return errStatus(http.StatusBadRequest, "invalid JSON body")
	}

	entry, err := r.historySvc.Create(req.Context(), user, cmd)
	if err != nil {
		return err
	}
	w.WriteHeader(http.StatusCreated)
	return writeJSON(w, entry)
}

// GET /v1/history?status=&testType=&search=&page=&limit=
func (r *Router) handleHistoryList(w http.ResponseWriter, req *http.Request) error {
	user, err := userID(req)
	if err != nil {
		return err
	}

	q := req.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	f := domain.ListFilter{
		Status:   domain.Status(q.Get("status")),
		TestType: domain.TestType(q.Get("testType")),
		Search:   middleware.SanitizeString(q.Get("search")),
		Page:     page,
		Limit:    limit,
	}

	res, err := r.historySvc.List(req.Context(), user, f)
	if err != nil {
		return err
	}
	return writeJSON(w, res)
}

// GET /v1/history/type/{type}?page=&limit=
func (r *Router) handleHistoryListByType(w http.ResponseWriter, req *http.Request) error {
	user, err := userID(req)
	if err != nil {
		return err
	}

	q := req.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	res, err := r.historySvc.ListByType(req.Context(), user,
		domain.TestType(chi.URLParam(req, "type")), page, limit)
	if err != nil {
		return err
	}
	return writeJSON(w, res)
}

// GET /v1/history/stats
func (r *Router) handleHistoryStats(w http.ResponseWriter, req *http.Request) error {
	user, err := userID(req)
	if err != nil {
		return err
	}

	stats, err := r.historySvc.Statistics(req.Context(), user)
	if err != nil {
		return err
	}
	return writeJSON(w, stats)
}

// DELETE /v1/history/{id}
func (r *Router) handleHistoryDelete(w http.ResponseWriter, req *http.Request) error {
	user, err := userID(req)
	if err != nil {
		return err
	}

	id := chi.URLParam(req, "id")
	if err := r.historySvc.Delete(req.Context(), user, id); err != nil {
		return err
	}
	return writeJSON(w, map[string]any{"message": "Deleted", "id": id})
}

// DELETE /v1/history
func (r *Router) handleHistoryClearAll(w http.ResponseWriter, req *http.Request) error {
	user, err := userID(req)
	if err != nil {
		return err
	}

	n, err := r.historySvc.ClearAll(req.Context(), user)
	if err != nil {
		return err
	}
	return writeJSON(w, map[string]any{"message": "Cleared", "deletedCount": n})
}

// DELETE /v1/history/type/{type}
func (r *Router) handleHistoryClearByType(w http.ResponseWriter, req *http.Request) error {
	user, err := userID(req)
	if err != nil {
		return err
	}

	t := domain.TestType(chi.URLParam(req, "type"))
	n, err := r.historySvc.ClearByType(req.Context(), user, t)
	if err != nil {
		return err
	}
	return writeJSON(w, map[string]any{"message": "Cleared", "testType": t, "deletedCount": n})
}

// GET /v1/web/audit?url=
func (r *Router) handleWebAudit(w http.ResponseWriter, req *http.Request) error {
	user, err := userID(req)
	if err != nil {
		return err
	}

	target := req.URL.Query().Get("url")
	if err := middleware.ValidateURL(target); err != nil {
		return errStatus(http.StatusBadRequest, err.Error())
	}

	res, err := r.webSvc.Audit(req.Context(), user, target)
	if err != nil {
		return err
	}
	return writeJSON(w, res)
}

// POST /v1/apk/upload (multipart, field "apk")
func (r *Router) handleApkUpload(w http.ResponseWriter, req *http.Request) error {
	user, err := userID(req)
	if err != nil {
		return err
	}

	if err := req.ParseMultipartForm(256 << 20); err != nil {
		return errStatus(http.StatusBadRequest, "invalid multipart body")
	}
	file, header, err := req.FormFile("apk")
	if err != nil {
		return errStatus(http.StatusBadRequest, "no file uploaded")
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".apk") {
		return errStatus(http.StatusBadRequest, "only APK files are allowed")
	}

	localPath, err := r.saveUpload(file, ".apk")
	if err != nil {
		return err
	}

	res, err := r.apkSvc.Analyze(req.Context(), user, localPath)
	if err != nil {
		os.Remove(localPath)
		return err
	}
	return writeJSON(w, map[string]any{
		"success":  true,
		"reportId": res.ReportID,
		"data":     res.Report,
	})
}

// GET /v1/apk/reports?limit=
func (r *Router) handleApkReports(w http.ResponseWriter, req *http.Request) error {
	if _, err := userID(req); err != nil {
		return err
	}
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))

	reports, err := r.apkSvc.Latest(req.Context(), middleware.ValidateLimit(limit))
	if err != nil {
		return err
	}
	return writeJSON(w, reports)
}

// GET /v1/apk/reports/{id}
func (r *Router) handleApkReport(w http.ResponseWriter, req *http.Request) error {
	if _, err := userID(req); err != nil {
		return err
	}

	report, err := r.apkSvc.Get(req.Context(), chi.URLParam(req, "id"))
	if err != nil {
		return err
	}
	return writeJSON(w, report)
}

// POST /v1/exe/run
func (r *Router) handleExeRun(w http.ResponseWriter, req *http.Request) error {
	user, err := userID(req)
	if err != nil {
		return err
	}

	var cfg domexe.RunConfig
	if err := json.NewDecoder(req.Body).Decode(&cfg); err != nil {
		return errStatus(http.StatusBadRequest, "invalid JSON body")
	}
	if err := middleware.ValidatePath(cfg.AppPath); err != nil {
		return errStatus(http.StatusBadRequest, err.Error())
	}

	res, err := r.exeSvc.Run(req.Context(), user, cfg)
	if err != nil {
		return err
	}
	return writeJSON(w, res)
}

// GET /v1/exe/results?limit=
func (r *Router) handleExeResults(w http.ResponseWriter, req *http.Request) error {
	if _, err := userID(req); err != nil {
		return err
	}
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))

	results, err := r.exeSvc.Latest(req.Context(), middleware.ValidateLimit(limit))
	if err != nil {
		return err
	}
	return writeJSON(w, results)
}

// GET /v1/exe/results/{id}
func (r *Router) handleExeResult(w http.ResponseWriter, req *http.Request) error {
	if _, err := userID(req); err != nil {
		return err
	}

	res, err := r.exeSvc.Get(req.Context(), chi.URLParam(req, "id"))
	if err != nil {
		return err
	}
	return writeJSON(w, res)
}

// POST /v1/ai/insights
// Body: {"report_id": "<id>"}
func (r *Router) handleAIReview(w http.ResponseWriter, req *http.Request) error {
	if _, err := userID(req); err != nil {
		return err
	}
	if r.aiSvc == nil {
		return errStatus(http.StatusNotImplemented, "ai review is not configured")
	}

	var body struct {
		ReportID string `json:"report_id"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return errStatus(http.StatusBadRequest, "invalid JSON body")
	}
	if body.ReportID == "" {
		return errStatus(http.StatusBadRequest, "report_id is required")
	}

	report, err := r.apkSvc.Get(req.Context(), body.ReportID)
	if err != nil {
		return err
	}

	review, err := r.aiSvc.ReviewReport(req.Context(), report)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	_, err = io.WriteString(w, review)
	return err
}

func (r *Router) saveUpload(src io.Reader, ext string) (string, error) {
	if err := os.MkdirAll(r.uploadDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(r.uploadDir, fmt.Sprintf("upload-%s%s", uuid.New().String(), ext))
	dst, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}
