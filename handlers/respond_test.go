package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"fixitquick/models"
	"fixitquick/services/dispatch"

	"github.com/gin-gonic/gin"
)

func TestOutcomeStatus(t *testing.T) {
	cases := map[models.OfferOutcome]int{
		models.OutcomeWon:             http.StatusOK,
		models.OutcomeDeclined:        http.StatusOK,
		models.OutcomeLost:            http.StatusConflict,
		models.OutcomeExpired:         http.StatusConflict,
		models.OutcomeAlreadyResolved: http.StatusConflict,
		models.OutcomeNotFound:        http.StatusNotFound,
	}
	for outcome, want := range cases {
		if got := outcomeStatus(outcome); got != want {
			t.Errorf("%s: expected %d, got %d", outcome, want, got)
		}
	}
}

func TestRespondDispatchError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		err  error
		want int
	}{
		{dispatch.ErrBookingNotFound, http.StatusNotFound},
		{dispatch.ErrOfferNotFound, http.StatusNotFound},
		{dispatch.ErrBookingTerminal, http.StatusConflict},
		{dispatch.ErrStaleTransition, http.StatusConflict},
		{dispatch.ErrNotAssignedProvider, http.StatusForbidden},
		{dispatch.ErrStoreUnavailable, http.StatusServiceUnavailable},
		{fmt.Errorf("wrapped: %w", dispatch.ErrStoreUnavailable), http.StatusServiceUnavailable},
		{fmt.Errorf("something else"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		respondDispatchError(c, tc.err)
		if w.Code != tc.want {
			t.Errorf("%v: expected %d, got %d", tc.err, tc.want, w.Code)
		}
		if !strings.Contains(w.Body.String(), `"message"`) {
			t.Errorf("%v: body missing message field: %s", tc.err, w.Body.String())
		}
	}
}
