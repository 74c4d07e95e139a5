package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/jd2q/go-interview-backend/internal/domain"
	"github.com/jd2q/go-interview-backend/internal/services"
)

func TestGetProfile_Success_NotFound(t *testing.T) {
	{
		svc := stubUserSvc{get: func(ctx context.Context, id string) (*domain.User, error) {
			return &domain.User{ID: id, Email: "jane.doe@example.com", DisplayName: "Jane Doe"}, nil
		}}
		h := New(nil, stubCredSvc{}, stubGenSvc{}, stubQSvc{}, stubFavSvc{}, svc, stubActSvc{})
		r := newAuthedRouter("u1")
		r.GET("/profile", h.GetProfile)

		w := perform(r, http.MethodGet, "/profile", "")
		if w.Code != http.StatusOK {
			t.Fatalf("get -> %d", w.Code)
		}
		var out ProfileResponse
		if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
			t.Fatalf("json: %v", err)
		}
		if out.ID != "u1" || out.DisplayName != "Jane Doe" {
			t.Fatalf("unexpected profile: %#v", out)
		}
	}
	{
		svc := stubUserSvc{get: func(context.Context, string) (*domain.User, error) {
			return nil, services.ErrUserNotFound
		}}
		h := New(nil, stubCredSvc{}, stubGenSvc{}, stubQSvc{}, stubFavSvc{}, svc, stubActSvc{})
		r := newAuthedRouter("u1")
		r.GET("/profile", h.GetProfile)
		if w := perform(r, http.MethodGet, "/profile", ""); w.Code != http.StatusNotFound {
			t.Fatalf("not found -> %d", w.Code)
		}
	}
}

func TestUpdateProfile_Binding_Validation_Success(t *testing.T) {
	// bad JSON and missing field -> 400 at binding
	{
		h := newStubHandlers()
		r := newAuthedRouter("u1")
		r.PUT("/profile", h.UpdateProfile)

		if w := perform(r, http.MethodPut, "/profile", "{bad"); w.Code != http.StatusBadRequest {
			t.Fatalf("bad json -> %d", w.Code)
		}
		if w := perform(r, http.MethodPut, "/profile", `{}`); w.Code != http.StatusBadRequest {
			t.Fatalf("missing field -> %d", w.Code)
		}
	}

	// whitespace-only name survives binding, rejected by the service -> 400
	{
		svc := stubUserSvc{update: func(context.Context, string, string) (*domain.User, error) {
			return nil, services.ErrEmptyDisplayName
		}}
		h := New(nil, stubCredSvc{}, stubGenSvc{}, stubQSvc{}, stubFavSvc{}, svc, stubActSvc{})
		r := newAuthedRouter("u1")
		r.PUT("/profile", h.UpdateProfile)

		if w := perform(r, http.MethodPut, "/profile", `{"display_name":"   "}`); w.Code != http.StatusBadRequest {
			t.Fatalf("whitespace name -> %d", w.Code)
		}
	}

	// success -> 200 with updated name, args forwarded trimmed
	{
		var got struct{ id, name string }
		svc := stubUserSvc{update: func(ctx context.Context, id, name string) (*domain.User, error) {
			got.id, got.name = id, name
			return &domain.User{ID: id, DisplayName: name}, nil
		}}
		h := New(nil, stubCredSvc{}, stubGenSvc{}, stubQSvc{}, stubFavSvc{}, svc, stubActSvc{})
		r := newAuthedRouter("u5")
		r.PUT("/profile", h.UpdateProfile)

		w := perform(r, http.MethodPut, "/profile", `{"display_name":"  New Name  "}`)
		if w.Code != http.StatusOK {
			t.Fatalf("update -> %d body=%s", w.Code, w.Body.String())
		}
		if got.id != "u5" || got.name != "New Name" {
			t.Fatalf("service args mismatch: %+v", got)
		}
		var out ProfileResponse
		if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
			t.Fatalf("json: %v", err)
		}
		if out.DisplayName != "New Name" {
			t.Fatalf("unexpected profile: %#v", out)
		}
	}
}
