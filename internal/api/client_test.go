package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/uptwnp/deal-network-sub001/internal/filter"
	"github.com/uptwnp/deal-network-sub001/internal/property"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := NewClient(Config{BaseURL: server.URL, SessionToken: "session-token"})
	if err != nil {
		t.Fatalf("unexpected client error: %v", err)
	}
	return client, server
}

func TestFetchListDecodesLooseRecords(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("unexpected form error: %v", err)
		}
		if r.PostFormValue("action") != ActionGetUserProperties {
			t.Fatalf("unexpected action %q", r.PostFormValue("action"))
		}
		if r.PostFormValue("token") != "session-token" {
			t.Fatalf("expected session token in form, got %q", r.PostFormValue("token"))
		}
		w.Write([]byte(`{"success":true,"data":[{"id":"3","owner_id":"5","price_min":"42.5","is_public":"1","city":"Panipat"}]}`))
	})

	records, err := client.GetUserProperties(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected one record, got %d", len(records))
	}
	record := records[0]
	if record.ID != 3 || record.OwnerID != 5 || record.PriceMin != 42.5 || !record.IsPublic {
		t.Fatalf("record not normalized: %+v", record)
	}
}

func TestSearchPropertiesSendsScopeParameter(t *testing.T) {
	var sawList, sawColumn, sawQuery string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		sawQuery = r.PostFormValue("query")
		sawColumn = r.PostFormValue("column")
		sawList = r.PostFormValue("list")
		w.Write([]byte(`{"success":1,"data":[]}`))
	})

	records, err := client.SearchProperties(context.Background(), "villa", "description", "both")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected empty result, got %d", len(records))
	}
	if sawQuery != "villa" || sawColumn != "description" || sawList != "both" {
		t.Fatalf("unexpected search params: query=%q column=%q list=%q", sawQuery, sawColumn, sawList)
	}
}

func TestFilterPropertiesEncodesSparsePredicate(t *testing.T) {
	minPrice := 50.0
	var form map[string][]string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		form = r.PostForm
		w.Write([]byte(`{"success":true,"data":[]}`))
	})

	_, err := client.FilterProperties(context.Background(), filter.Predicate{Type: "House", MinPrice: &minPrice}, "mine")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := form["type"]; len(got) != 1 || got[0] != "House" {
		t.Fatalf("expected type param, got %v", form["type"])
	}
	if got := form["min_price"]; len(got) != 1 || got[0] != "50" {
		t.Fatalf("expected min_price param, got %v", form["min_price"])
	}
	if _, present := form["city"]; present {
		t.Fatalf("absent predicate fields must not be sent")
	}
}

func TestAddPropertyReturnsAssignedID(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		if r.PostFormValue("action") != ActionAddProperty {
			t.Fatalf("unexpected action %q", r.PostFormValue("action"))
		}
		if r.PostFormValue("is_public") != "0" {
			t.Fatalf("expected is_public=0, got %q", r.PostFormValue("is_public"))
		}
		w.Write([]byte(`{"success":true,"id":"123"}`))
	})

	id, err := client.AddProperty(context.Background(), property.Property{City: "Panipat", Type: "House"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 123 {
		t.Fatalf("expected id 123, got %d", id)
	}
}

func TestServerReportedFailureSurfacesCodedError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"message":"session expired"}`))
	})

	_, err := client.GetPublicProperties(context.Background())
	if err == nil {
		t.Fatalf("expected error for server-reported failure")
	}
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if apiErr.Action != ActionGetPublicProperties || apiErr.Reason != "server_failure" {
		t.Fatalf("unexpected error code: %+v", apiErr)
	}
}

func TestHTTPStatusFailure(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusBadGateway)
	})

	_, err := client.GetAllProperties(context.Background())
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if apiErr.Reason != "http_status" || apiErr.StatusCode != http.StatusBadGateway {
		t.Fatalf("unexpected error: %+v", apiErr)
	}
}

func TestGetPropertyNotFound(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"data":[]}`))
	})

	_, err := client.GetProperty(context.Background(), 404)
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if apiErr.Reason != "not_found" {
		t.Fatalf("unexpected reason %q", apiErr.Reason)
	}
}
