package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"cybercrime-portal/pkg/catalog"
	"cybercrime-portal/pkg/integrity"
	"cybercrime-portal/pkg/logger"
	"cybercrime-portal/pkg/middleware"
	"cybercrime-portal/pkg/response"
	"cybercrime-portal/services/case-service/lifecycle"
	"cybercrime-portal/services/case-service/models"
	"cybercrime-portal/services/case-service/storage"
)

// multipart parts above this are spooled to disk by net/http.
const uploadMemory = 8 << 20

// BlobStore keeps evidence file bytes. *storage.EvidenceBlobs satisfies it.
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	DownloadURL(ctx context.Context, key, fileName string) (string, error)
}

type server struct {
	cases   *lifecycle.Manager
	blobs   BlobStore
	proxies []netip.Prefix
	log     *logger.Logger
}

// newServer builds the case API. X-Forwarded-For is honoured only when the
// direct peer falls inside proxies.
func newServer(cases *lifecycle.Manager, blobs BlobStore, proxies []netip.Prefix, log *logger.Logger) *server {
	return &server{cases: cases, blobs: blobs, proxies: proxies, log: log}
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.healthHandler)
	mux.Handle("GET /metrics", middleware.GetMetricsHandler())

	auth := middleware.AuthMiddleware
	mux.HandleFunc("POST /api/cases", auth(s.createCase))
	mux.HandleFunc("GET /api/cases", auth(s.listCases))
	mux.HandleFunc("GET /api/cases/analytics", auth(
		middleware.RequirePermission(catalog.PermViewAnalytics)(http.HandlerFunc(s.analytics)).ServeHTTP,
	))
	mux.HandleFunc("GET /api/cases/{id}", auth(s.getCase))
	mux.HandleFunc("PUT /api/cases/{id}/status", auth(s.updateStatus))
	mux.HandleFunc("PUT /api/cases/{id}/assign", auth(s.assignOfficer))
	mux.HandleFunc("PUT /api/cases/{id}/priority", auth(s.updatePriority))
	mux.HandleFunc("POST /api/cases/{id}/communications", auth(s.addCommunication))
	mux.HandleFunc("POST /api/cases/{id}/communications/{commId}/read", auth(s.markRead))
	mux.HandleFunc("POST /api/cases/{id}/suspects", auth(s.addSuspect))

	mux.HandleFunc("POST /api/evidence/upload", auth(s.uploadEvidence))
	mux.HandleFunc("GET /api/evidence/{id}", auth(s.getEvidence))
	mux.HandleFunc("GET /api/evidence/{id}/custody", auth(s.getCustody))
	mux.HandleFunc("POST /api/evidence/{id}/custody", auth(s.recordCustody))
	mux.HandleFunc("POST /api/evidence/{id}/verify", auth(s.verifyEvidence))
	mux.HandleFunc("GET /api/evidence/{id}/download", auth(s.downloadEvidence))

	return middleware.TraceMiddleware(
		middleware.MetricsMiddleware(
			middleware.LoggerMiddleware(s.log)(mux),
		),
	)
}

func (s *server) healthHandler(w http.ResponseWriter, r *http.Request) {
	response.Success(w, http.StatusOK, "Case Service is healthy", map[string]string{
		"service": "case-service",
		"status":  "ok",
	})
}

// actorFrom builds the acting user from the verified token and the caller's
// address.
func (s *server) actorFrom(r *http.Request) (lifecycle.Actor, bool) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		return lifecycle.Actor{}, false
	}
	return lifecycle.NewActor(claims.UserID, claims.Role, s.clientIP(r)), true
}

// clientIP returns the address recorded as the origin of custody entries.
// It is the direct peer unless that peer is a trusted proxy, in which case
// X-Forwarded-For is walked from the right and the first hop outside the
// trusted set wins.
func (s *server) clientIP(r *http.Request) string {
	peer := r.RemoteAddr
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		peer = host
	}
	if !s.trusted(peer) {
		return peer
	}

	hops := strings.Split(strings.Join(r.Header.Values("X-Forwarded-For"), ","), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		addr, err := netip.ParseAddr(hop)
		if err != nil {
			// A malformed hop cannot be attributed; stop at the last proxy.
			break
		}
		if !s.trusted(addr.String()) {
			return addr.String()
		}
		peer = addr.String()
	}
	return peer
}

func (s *server) trusted(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range s.proxies {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// parseTrustedProxies reads CIDR prefixes or bare addresses.
func parseTrustedProxies(entries []string) ([]netip.Prefix, error) {
	out := make([]netip.Prefix, 0, len(entries))
	for _, e := range entries {
		if strings.Contains(e, "/") {
			p, err := netip.ParsePrefix(e)
			if err != nil {
				return nil, fmt.Errorf("trusted proxy %q: %w", e, err)
			}
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(e)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", e, err)
		}
		addr = addr.Unmap()
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}

func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	return dec.Decode(v)
}

// writeError maps lifecycle errors onto HTTP statuses. Anything unknown is
// logged and reported as 500.
func (s *server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr     *lifecycle.ValidationError
		authErr  *lifecycle.AuthorizationError
		transErr *lifecycle.InvalidTransitionError
		stateErr *lifecycle.InvalidStateError
		sizeErr  *lifecycle.SizeLimitExceededError
		maxErr   *http.MaxBytesError
	)

	switch {
	case errors.As(err, &verr):
		response.Invalid(w, http.StatusUnprocessableEntity, "Validation failed", verr.Fields, nil)
	case errors.As(err, &authErr):
		response.Error(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.As(err, &transErr):
		response.Invalid(w, http.StatusConflict, err.Error(), nil, map[string]interface{}{
			"current_status":   transErr.From,
			"allowed_statuses": transErr.Allowed,
		})
	case errors.As(err, &stateErr):
		response.Invalid(w, http.StatusConflict, err.Error(), nil, map[string]interface{}{
			"current_status":   stateErr.Status,
			"allowed_statuses": lifecycle.NextStatuses(stateErr.Status),
		})
	case errors.As(err, &sizeErr):
		response.Error(w, http.StatusRequestEntityTooLarge, "Evidence too large", err.Error())
	case errors.As(err, &maxErr):
		response.Error(w, http.StatusRequestEntityTooLarge, "Upload too large",
			"uploads are limited to "+humanize.Bytes(uint64(maxErr.Limit)))
	case errors.Is(err, lifecycle.ErrCaseNotFound),
		errors.Is(err, lifecycle.ErrEvidenceNotFound),
		errors.Is(err, lifecycle.ErrCommunicationNotFound):
		response.Error(w, http.StatusNotFound, "Not found", err.Error())
	default:
		s.log.WithTraceID(middleware.GetTraceID(r)).WithError(err).Error("Request failed")
		response.Error(w, http.StatusInternalServerError, "Internal server error", "")
	}
}

func (s *server) createCase(w http.ResponseWriter, r *http.Request) {
	actor, _ := s.actorFrom(r)

	var form models.CaseFormData
	if err := decodeJSON(r, &form); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request payload", err.Error())
		return
	}

	c, err := s.cases.CreateCase(r.Context(), form, actor)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	response.Success(w, http.StatusCreated, "Case submitted", c)
}

func (s *server) listCases(w http.ResponseWriter, r *http.Request) {
	actor, _ := s.actorFrom(r)

	opts, err := parseFilter(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	page, err := s.cases.ListCases(r.Context(), opts, actor)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	response.Success(w, http.StatusOK, "", page)
}

func (s *server) analytics(w http.ResponseWriter, r *http.Request) {
	actor, _ := s.actorFrom(r)

	summary, err := s.cases.Summarize(r.Context(), actor)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	response.Success(w, http.StatusOK, "", summary)
}

func (s *server) getCase(w http.ResponseWriter, r *http.Request) {
	actor, _ := s.actorFrom(r)

	c, err := s.cases.GetCase(r.Context(), r.PathValue("id"), actor)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	response.Success(w, http.StatusOK, "", c)
}

func (s *server) updateStatus(w http.ResponseWriter, r *http.Request) {
	actor, _ := s.actorFrom(r)

	var input struct {
		Status catalog.CaseStatus `json:"status"`
		Note   string             `json:"note"`
	}
	if err := decodeJSON(r, &input); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request payload", err.Error())
		return
	}

	c, err := s.cases.TransitionStatus(r.Context(), r.PathValue("id"), input.Status, actor, input.Note)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	response.Success(w, http.StatusOK, "Case status updated", c)
}

func (s *server) assignOfficer(w http.ResponseWriter, r *http.Request) {
	actor, _ := s.actorFrom(r)

	var input struct {
		OfficerID string `json:"officer_id"`
	}
	if err := decodeJSON(r, &input); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request payload", err.Error())
		return
	}

	c, err := s.cases.AssignOfficer(r.Context(), r.PathValue("id"), input.OfficerID, actor)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	response.Success(w, http.StatusOK, "Officer assigned", c)
}

func (s *server) updatePriority(w http.ResponseWriter, r *http.Request) {
	actor, _ := s.actorFrom(r)

	var input struct {
		Priority catalog.Priority `json:"priority"`
	}
	if err := decodeJSON(r, &input); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request payload", err.Error())
		return
	}

	c, err := s.cases.UpdatePriority(r.Context(), r.PathValue("id"), input.Priority, actor)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	response.Success(w, http.StatusOK, "Case priority updated", c)
}

func (s *server) addCommunication(w http.ResponseWriter, r *http.Request) {
	actor, _ := s.actorFrom(r)

	var input lifecycle.CommunicationInput
	if err := decodeJSON(r, &input); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request payload", err.Error())
		return
	}

	comm, err := s.cases.AddCommunication(r.Context(), r.PathValue("id"), input, actor)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	response.Success(w, http.StatusCreated, "Message sent", comm)
}

func (s *server) markRead(w http.ResponseWriter, r *http.Request) {
	actor, _ := s.actorFrom(r)

	comm, err := s.cases.MarkCommunicationRead(r.Context(), r.PathValue("id"), r.PathValue("commId"), actor)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	response.Success(w, http.StatusOK, "", comm)
}

func (s *server) addSuspect(w http.ResponseWriter, r *http.Request) {
	actor, _ := s.actorFrom(r)

	var input models.Suspect
	if err := decodeJSON(r, &input); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request payload", err.Error())
		return
	}

	suspect, err := s.cases.AddSuspect(r.Context(), r.PathValue("id"), input, actor)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	response.Success(w, http.StatusCreated, "Suspect added", suspect)
}

// uploadEvidence stores the file and attaches it to its case. The declared
// type's size bound and the caller's rights are checked before any bytes
// reach object storage.
func (s *server) uploadEvidence(w http.ResponseWriter, r *http.Request) {
	actor, _ := s.actorFrom(r)

	// room for the form fields around the largest permitted file
	r.Body = http.MaxBytesReader(w, r.Body, int64(catalog.LargestEvidenceSize())+1<<20)
	if err := r.ParseMultipartForm(uploadMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.writeError(w, r, err)
			return
		}
		response.Error(w, http.StatusBadRequest, "Invalid multipart form", err.Error())
		return
	}
	defer r.MultipartForm.RemoveAll()

	caseID := strings.TrimSpace(r.FormValue("case_id"))
	if caseID == "" {
		s.writeError(w, r, lifecycle.InvalidField("case_id", "required", "is required"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, r, lifecycle.InvalidField("file", "required", "is required"))
		return
	}
	defer file.Close()

	sum, size, err := integrity.Reader(file)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if declared := strings.ToLower(strings.TrimSpace(r.FormValue("hash"))); declared != "" && declared != sum {
		s.writeError(w, r, lifecycle.InvalidField("hash", "mismatch", "does not match the uploaded content"))
		return
	}

	meta := lifecycle.EvidenceMeta{
		Type:        catalog.EvidenceType(r.FormValue("type")),
		FileName:    header.Filename,
		FileSize:    size,
		ContentType: header.Header.Get("Content-Type"),
		Description: r.FormValue("description"),
		Hash:        sum,
		StorageKey:  storage.ObjectKey(caseID, sum),
	}
	if err := meta.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.cases.AuthorizeUpload(r.Context(), caseID, actor); err != nil {
		s.writeError(w, r, err)
		return
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.blobs.Put(r.Context(), meta.StorageKey, file, size, meta.ContentType); err != nil {
		s.writeError(w, r, err)
		return
	}

	// The object is content addressed, so it is left in place if attaching
	// fails: another evidence item may share it.
	ev, err := s.cases.AttachEvidence(r.Context(), caseID, meta, actor)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	response.Success(w, http.StatusCreated, "Evidence uploaded", ev)
}

func (s *server) getEvidence(w http.ResponseWriter, r *http.Request) {
	actor, _ := s.actorFrom(r)

	ev, err := s.cases.GetEvidence(r.Context(), r.PathValue("id"), actor)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	response.Success(w, http.StatusOK, "", ev)
}

func (s *server) getCustody(w http.ResponseWriter, r *http.Request) {
	actor, _ := s.actorFrom(r)

	ev, err := s.cases.GetEvidence(r.Context(), r.PathValue("id"), actor)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	response.Success(w, http.StatusOK, "", map[string]interface{}{
		"chain_of_custody": ev.ChainOfCustody,
		"verification":     lifecycle.VerifyCustodyChain(ev),
	})
}

func (s *server) recordCustody(w http.ResponseWriter, r *http.Request) {
	actor, _ := s.actorFrom(r)

	var input struct {
		Action catalog.CustodyAction `json:"action"`
		Notes  string                `json:"notes"`
	}
	if err := decodeJSON(r, &input); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request payload", err.Error())
		return
	}

	entry, err := s.cases.RecordCustodyEvent(r.Context(), r.PathValue("id"), input.Action, input.Notes, actor)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	response.Success(w, http.StatusCreated, "Custody event recorded", entry)
}

func (s *server) verifyEvidence(w http.ResponseWriter, r *http.Request) {
	actor, _ := s.actorFrom(r)

	ev, err := s.cases.VerifyEvidence(r.Context(), r.PathValue("id"), actor)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	response.Success(w, http.StatusOK, "Evidence verified", ev)
}

// downloadEvidence hands out a short-lived link and records the access in
// the chain of custody before doing so.
func (s *server) downloadEvidence(w http.ResponseWriter, r *http.Request) {
	actor, _ := s.actorFrom(r)
	id := r.PathValue("id")

	ev, err := s.cases.GetEvidence(r.Context(), id, actor)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if ev.StorageKey == "" {
		response.Error(w, http.StatusNotFound, "Not found", "evidence has no stored file")
		return
	}
	if _, err := s.cases.RecordCustodyEvent(r.Context(), id, catalog.CustodyAccessed, "download link issued", actor); err != nil {
		s.writeError(w, r, err)
		return
	}

	link, err := s.blobs.DownloadURL(r.Context(), ev.StorageKey, ev.FileName)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	response.Success(w, http.StatusOK, "", map[string]string{
		"url":       link,
		"file_name": ev.FileName,
		"hash":      ev.Hash,
	})
}

// parseFilter reads list criteria from the query string. Set-valued keys
// accept repeated parameters or comma separated values; dates accept
// RFC 3339 or YYYY-MM-DD.
func parseFilter(q url.Values) (lifecycle.FilterOptions, error) {
	opts := lifecycle.FilterOptions{
		Statuses:          queryList[catalog.CaseStatus](q, "status"),
		Categories:        queryList[catalog.CrimeCategory](q, "category"),
		Severities:        queryList[catalog.Severity](q, "severity"),
		Priorities:        queryList[catalog.Priority](q, "priority"),
		AssignedOfficerID: strings.TrimSpace(q.Get("assigned_officer_id")),
		Search:            q.Get("search"),
	}

	verr := &lifecycle.ValidationError{}
	var err error
	if opts.ReportedFrom, err = queryTime(q, "from"); err != nil {
		verr.Add("from", "datetime", "must be RFC 3339 or YYYY-MM-DD")
	}
	if opts.ReportedTo, err = queryTime(q, "to"); err != nil {
		verr.Add("to", "datetime", "must be RFC 3339 or YYYY-MM-DD")
	}
	if opts.Page, err = queryInt(q, "page"); err != nil {
		verr.Add("page", "number", "must be a whole number")
	}
	if opts.Limit, err = queryInt(q, "limit"); err != nil {
		verr.Add("limit", "number", "must be a whole number")
	}
	return opts, verr.OrNil()
}

func queryList[T ~string](q url.Values, key string) []T {
	var out []T
	for _, raw := range q[key] {
		for _, v := range strings.Split(raw, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, T(v))
			}
		}
	}
	return out
}

func queryTime(q url.Values, key string) (*time.Time, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		if t, err = time.Parse(time.DateOnly, raw); err != nil {
			return nil, err
		}
	}
	return &t, nil
}

func queryInt(q url.Values, key string) (int, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
