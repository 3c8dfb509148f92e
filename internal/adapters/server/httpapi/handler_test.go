package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/evanschultz/kanboard/internal/adapters/server/common"
)

// stubBoardService provides deterministic board responses for handler tests.
type stubBoardService struct {
	state      common.BoardState
	card       common.BoardCard
	err        error
	lastGet    string
	lastCreate common.CreateCardRequest
	lastMove   common.MoveCardRequest
	lastUpdate common.UpdateCardRequest
	lastDelete string
}

func (s *stubBoardService) BoardState(context.Context) (common.BoardState, error) {
	return s.state, s.err
}

func (s *stubBoardService) GetCard(_ context.Context, id string) (common.BoardCard, error) {
	s.lastGet = id
	return s.card, s.err
}

func (s *stubBoardService) CreateCard(_ context.Context, req common.CreateCardRequest) (common.BoardCard, error) {
	s.lastCreate = req
	return s.card, s.err
}

func (s *stubBoardService) MoveCard(_ context.Context, req common.MoveCardRequest) (common.BoardCard, error) {
	s.lastMove = req
	return s.card, s.err
}

func (s *stubBoardService) UpdateCard(_ context.Context, req common.UpdateCardRequest) (common.BoardCard, error) {
	s.lastUpdate = req
	return s.card, s.err
}

func (s *stubBoardService) DeleteCard(_ context.Context, id string) error {
	s.lastDelete = id
	return s.err
}

func serve(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) APIError {
	t.Helper()
	var env ErrorEnvelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	return env.Error
}

func TestHandlerBoard(t *testing.T) {
	svc := &stubBoardService{state: common.BoardState{
		Columns: []common.BoardColumn{{ID: "todo", Title: "To Do", Cards: []common.BoardCard{{ID: "c1"}}}},
		Total:   1,
	}}
	rec := serve(NewHandler(svc), http.MethodGet, "/board", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var got common.BoardState
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got.Total != 1 || got.Columns[0].Cards[0].ID != "c1" {
		t.Fatalf("unexpected board %#v", got)
	}
}

func TestHandlerMoveCard(t *testing.T) {
	svc := &stubBoardService{card: common.BoardCard{ID: "c1", Status: "done"}}
	for _, method := range []string{http.MethodPost, http.MethodPatch} {
		rec := serve(NewHandler(svc), method, "/cards/c1/status", `{"status":"done"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s status = %d, want %d", method, rec.Code, http.StatusOK)
		}
		if svc.lastMove.CardID != "c1" || svc.lastMove.Status != "done" {
			t.Fatalf("unexpected move request %#v", svc.lastMove)
		}
	}
}

func TestHandlerCreateAndGetCard(t *testing.T) {
	svc := &stubBoardService{card: common.BoardCard{ID: "c9", Title: "new"}}
	h := NewHandler(svc)

	rec := serve(h, http.MethodPost, "/cards", `{"title":"new","labels":["x"]}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusCreated)
	}
	if svc.lastCreate.Title != "new" || len(svc.lastCreate.Labels) != 1 {
		t.Fatalf("unexpected create request %#v", svc.lastCreate)
	}

	rec = serve(h, http.MethodGet, "/cards/c9", "")
	if rec.Code != http.StatusOK || svc.lastGet != "c9" {
		t.Fatalf("unexpected get response %d for %q", rec.Code, svc.lastGet)
	}
}

func TestHandlerUpdateAndDeleteCard(t *testing.T) {
	svc := &stubBoardService{card: common.BoardCard{ID: "c3", Title: "renamed"}}
	h := NewHandler(svc)

	rec := serve(h, http.MethodPatch, "/cards/c3", `{"title":"renamed","labels":[]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	got := svc.lastUpdate
	if got.CardID != "c3" || got.Title == nil || *got.Title != "renamed" {
		t.Fatalf("unexpected update request %#v", got)
	}
	if got.Labels == nil || len(*got.Labels) != 0 || got.Description != nil || got.Priority != nil {
		t.Fatalf("unexpected optional fields %#v", got)
	}

	rec = serve(h, http.MethodDelete, "/cards/c3", "")
	if rec.Code != http.StatusNoContent || svc.lastDelete != "c3" {
		t.Fatalf("unexpected delete response %d for %q", rec.Code, svc.lastDelete)
	}

	svc.err = errors.Join(common.ErrNotFound, errors.New("x"))
	rec = serve(h, http.MethodDelete, "/cards/c4", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestHandlerRejectsMalformedBodies(t *testing.T) {
	h := NewHandler(&stubBoardService{})
	cases := []string{
		`{"status":"done","extra":true}`,
		`{"status":"done"} {"status":"todo"}`,
		`not json`,
	}
	for _, body := range cases {
		rec := serve(h, http.MethodPost, "/cards/c1/status", body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %q status = %d, want %d", body, rec.Code, http.StatusBadRequest)
		}
		if got := decodeError(t, rec); got.Code != "invalid_request" {
			t.Fatalf("body %q code = %q", body, got.Code)
		}
	}
}

func TestHandlerErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
		name string
	}{
		{err: errors.Join(common.ErrNotFound, errors.New("x")), code: http.StatusNotFound, name: "not_found"},
		{err: errors.Join(common.ErrInvalidRequest, errors.New("x")), code: http.StatusBadRequest, name: "invalid_request"},
		{err: errors.New("boom"), code: http.StatusInternalServerError, name: "internal_error"},
	}
	for _, tc := range cases {
		rec := serve(NewHandler(&stubBoardService{err: tc.err}), http.MethodGet, "/board", "")
		if rec.Code != tc.code {
			t.Fatalf("status = %d, want %d", rec.Code, tc.code)
		}
		if got := decodeError(t, rec); got.Code != tc.name {
			t.Fatalf("code = %q, want %q", got.Code, tc.name)
		}
	}
}

func TestHandlerRouting(t *testing.T) {
	h := NewHandler(&stubBoardService{})
	cases := []struct {
		method, path string
		code         int
		allow        string
	}{
		{http.MethodPost, "/board", http.StatusMethodNotAllowed, http.MethodGet},
		{http.MethodGet, "/cards", http.StatusMethodNotAllowed, http.MethodPost},
		{http.MethodGet, "/cards/c1/status", http.StatusMethodNotAllowed, "POST, PATCH"},
		{http.MethodPut, "/cards/c1", http.StatusMethodNotAllowed, "GET, PATCH, DELETE"},
		{http.MethodGet, "/cards/c1/archive", http.StatusNotFound, ""},
		{http.MethodGet, "/nope", http.StatusNotFound, ""},
	}
	for _, tc := range cases {
		rec := serve(h, tc.method, tc.path, "")
		if rec.Code != tc.code {
			t.Fatalf("%s %s status = %d, want %d", tc.method, tc.path, rec.Code, tc.code)
		}
		if tc.allow != "" && rec.Header().Get("Allow") != tc.allow {
			t.Fatalf("%s %s Allow = %q, want %q", tc.method, tc.path, rec.Header().Get("Allow"), tc.allow)
		}
	}
}

func TestHandlerWithoutService(t *testing.T) {
	rec := serve(NewHandler(nil), http.MethodGet, "/board", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}
