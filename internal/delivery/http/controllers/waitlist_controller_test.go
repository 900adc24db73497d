package controllers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventlottery/internal/delivery/http/helpers"
	"eventlottery/internal/domain"
)

var entrant = &domain.Identity{EntrantID: "u1"}

func TestWaitlistController_Join(t *testing.T) {
	tests := []struct {
		name       string
		body       any
		joinErr    error
		wantStatus int
		wantCode   string
		wantGeo    string
	}{
		{name: "no body", wantStatus: http.StatusCreated},
		{name: "with geolocation", body: `{"geolocation":{"lat":52.5,"lng":13.4}}`, wantStatus: http.StatusCreated, wantGeo: `{"lat":52.5,"lng":13.4}`},
		{name: "null geolocation", body: `{"geolocation":null}`, wantStatus: http.StatusCreated},
		{name: "geolocation not an object", body: `{"geolocation":[1,2]}`, wantStatus: http.StatusBadRequest, wantCode: helpers.ErrCodeBadRequest},
		{name: "already joined", joinErr: domain.ErrAlreadyJoined, wantStatus: http.StatusConflict, wantCode: helpers.ErrCodeConflict},
		{name: "closed", joinErr: domain.ErrRegistrationClosed, wantStatus: http.StatusUnprocessableEntity, wantCode: helpers.ErrCodeUnprocessable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wl := &fakeWaitlist{joinErr: tt.joinErr}
			ctrl := NewWaitlistController(testLogger, wl)
			rr := httptest.NewRecorder()

			ctrl.Join(rr, newRequest(t, http.MethodPost, "/events/ev-1/waitlist", tt.body, entrant, map[string]string{"eventID": "ev-1"}))

			require.Equal(t, tt.wantStatus, rr.Code)
			apiErr := decodeEnvelope(t, rr, nil)
			if tt.wantCode != "" {
				require.NotNil(t, apiErr)
				assert.Equal(t, tt.wantCode, apiErr.Code)
				return
			}
			assert.Equal(t, "u1", wl.lastJoin)
			assert.Equal(t, "ev-1", wl.lastEvent)
			if tt.wantGeo == "" {
				assert.Nil(t, wl.lastGeo)
			} else {
				assert.JSONEq(t, tt.wantGeo, string(wl.lastGeo))
			}
		})
	}
}

func TestWaitlistController_JoinWithoutIdentity(t *testing.T) {
	ctrl := NewWaitlistController(testLogger, &fakeWaitlist{})
	rr := httptest.NewRecorder()
	ctrl.Join(rr, newRequest(t, http.MethodPost, "/events/ev-1/waitlist", nil, nil, map[string]string{"eventID": "ev-1"}))
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestWaitlistController_Leave(t *testing.T) {
	ctrl := NewWaitlistController(testLogger, &fakeWaitlist{})
	rr := httptest.NewRecorder()
	ctrl.Leave(rr, newRequest(t, http.MethodDelete, "/events/ev-1/waitlist", nil, entrant, map[string]string{"eventID": "ev-1"}))
	require.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, rr.Body.String())
}

func TestWaitlistController_List(t *testing.T) {
	wl := &fakeWaitlist{entries: []*domain.WaitlistEntry{
		{EventID: "ev-1", EntrantID: "a"},
		{EventID: "ev-1", EntrantID: "b"},
		{EventID: "ev-1", EntrantID: "c"},
	}}
	ctrl := NewWaitlistController(testLogger, wl)
	rr := httptest.NewRecorder()

	ctrl.List(rr, newRequest(t, http.MethodGet, "/events/ev-1/waitlist?page=2&page_size=2", nil, organizer, map[string]string{"eventID": "ev-1"}))

	require.Equal(t, http.StatusOK, rr.Code)
	var page WaitlistPage
	require.Nil(t, decodeEnvelope(t, rr, &page))
	assert.Equal(t, 3, page.Count)
	require.Len(t, page.Entries, 1)
	assert.Equal(t, "c", page.Entries[0].EntrantID)
	assert.Equal(t, helpers.PaginationMeta{Page: 2, PageSize: 2, Total: 3, TotalPages: 2}, page.Pagination)
}
