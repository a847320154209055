package wards

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/ward-census/ward-census/internal/access"
	"github.com/ward-census/ward-census/internal/audit"
	"github.com/ward-census/ward-census/internal/config"
	"github.com/ward-census/ward-census/internal/db/repositories"
)

// ---------------------------------------------------------------------------
// Test setup helpers
// ---------------------------------------------------------------------------

var memberSQLCols = []string{
	"id", "household_id", "full_name", "gender", "date_of_birth", "relationship_to_head",
	"education", "occupation", "monthly_income", "aadhaar_number", "mobile_number",
	"is_disabled", "is_senior_citizen", "created_at", "updated_at",
}

func sampleMemberRow(id, householdID string) *sqlmock.Rows {
	return sqlmock.NewRows(memberSQLCols).
		AddRow(id, householdID, "Lakshmi Devi", "FEMALE", nil, "HEAD",
			nil, nil, nil, nil, nil, false, true, time.Now(), time.Now())
}

func newMemberRouter(t *testing.T, p access.Principal) (sqlmock.Sqlmock, *gin.Engine) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	recorder := audit.NewRecorder(repositories.NewAuditRepository(db))
	h := NewFamilyMemberHandlers(&config.Config{}, db, recorder)

	r := newIdentityRouter(p)
	r.POST("/households/:id/family-members", h.CreateFamilyMemberHandler())
	r.GET("/households/:id/family-members", h.ListFamilyMembersHandler())
	r.GET("/family-members/:id", h.GetFamilyMemberHandler())
	r.PUT("/family-members/:id", h.UpdateFamilyMemberHandler())
	r.DELETE("/family-members/:id", h.DeleteFamilyMemberHandler())

	return mock, r
}

func expectMemberWardResolution(mock sqlmock.Sqlmock, memberID, householdID, wardID string) {
	mock.ExpectQuery("SELECT household_id FROM family_members").WithArgs(memberID).
		WillReturnRows(sqlmock.NewRows([]string{"household_id"}).AddRow(householdID))
	mock.ExpectQuery("SELECT ward_id FROM households").WithArgs(householdID).
		WillReturnRows(sqlmock.NewRows([]string{"ward_id"}).AddRow(wardID))
}

// ---------------------------------------------------------------------------
// CreateFamilyMemberHandler
// ---------------------------------------------------------------------------

func TestCreateFamilyMemberHandler_UnknownGender(t *testing.T) {
	_, r := newMemberRouter(t, agent("ward-1"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/households/hh-1/family-members", jsonBody(map[string]string{
		"fullName":           "Lakshmi Devi",
		"gender":             "UNKNOWN",
		"relationshipToHead": "HEAD",
	})))

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestCreateFamilyMemberHandler_HouseholdNotFound(t *testing.T) {
	mock, r := newMemberRouter(t, superAdmin())

	mock.ExpectQuery("SELECT ward_id FROM households").WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"ward_id"}))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/households/missing/family-members", jsonBody(map[string]string{
		"fullName":           "Lakshmi Devi",
		"gender":             "FEMALE",
		"relationshipToHead": "HEAD",
	})))

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestCreateFamilyMemberHandler_OutOfScopeForbidden(t *testing.T) {
	mock, r := newMemberRouter(t, agent("ward-1"))

	mock.ExpectQuery("SELECT ward_id FROM households").WithArgs("hh-2").
		WillReturnRows(sqlmock.NewRows([]string{"ward_id"}).AddRow("ward-2"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/households/hh-2/family-members", jsonBody(map[string]string{
		"fullName":           "Lakshmi Devi",
		"gender":             "FEMALE",
		"relationshipToHead": "HEAD",
	})))

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Code)
	}
}

func TestCreateFamilyMemberHandler_Success(t *testing.T) {
	mock, r := newMemberRouter(t, agent("ward-1"))

	mock.ExpectQuery("SELECT ward_id FROM households").WithArgs("hh-1").
		WillReturnRows(sqlmock.NewRows([]string{"ward_id"}).AddRow("ward-1"))
	mock.ExpectExec("INSERT INTO family_members").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery("INSERT INTO audit_logs").WillReturnRows(auditSeqRow())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/households/hh-1/family-members", jsonBody(map[string]interface{}{
		"fullName":           "Lakshmi Devi",
		"gender":             "FEMALE",
		"dateOfBirth":        "1958-03-14",
		"relationshipToHead": "HEAD",
		"isSeniorCitizen":    true,
		"householdId":        "hh-other",
	})))

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: body=%s", w.Code, w.Body.String())
	}
	member := getJSON(w)["member"].(map[string]interface{})
	if member["HouseholdID"] != "hh-1" {
		t.Errorf("HouseholdID = %v, want path household hh-1", member["HouseholdID"])
	}
	if member["IsSeniorCitizen"] != true {
		t.Error("IsSeniorCitizen flag was dropped")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCreateFamilyMemberHandler_BadDateOfBirth(t *testing.T) {
	_, r := newMemberRouter(t, agent("ward-1"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/households/hh-1/family-members", jsonBody(map[string]string{
		"fullName":           "Lakshmi Devi",
		"gender":             "FEMALE",
		"relationshipToHead": "HEAD",
		"dateOfBirth":        "14/03/1958",
	})))

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

// ---------------------------------------------------------------------------
// ListFamilyMembersHandler
// ---------------------------------------------------------------------------

func TestListFamilyMembersHandler_Success(t *testing.T) {
	mock, r := newMemberRouter(t, agent("ward-1"))

	mock.ExpectQuery("SELECT ward_id FROM households").WithArgs("hh-1").
		WillReturnRows(sqlmock.NewRows([]string{"ward_id"}).AddRow("ward-1"))
	mock.ExpectQuery("SELECT.*FROM family_members.*WHERE household_id").WithArgs("hh-1").
		WillReturnRows(sampleMemberRow("fm-1", "hh-1"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/households/hh-1/family-members", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: body=%s", w.Code, w.Body.String())
	}
	members := getJSON(w)["members"].([]interface{})
	if len(members) != 1 {
		t.Errorf("len(members) = %d, want 1", len(members))
	}
}

// ---------------------------------------------------------------------------
// GetFamilyMemberHandler
// ---------------------------------------------------------------------------

func TestGetFamilyMemberHandler_NotFound(t *testing.T) {
	mock, r := newMemberRouter(t, superAdmin())

	mock.ExpectQuery("SELECT household_id FROM family_members").WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"household_id"}))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/family-members/missing", nil))

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestGetFamilyMemberHandler_DanglingHouseholdNotFound(t *testing.T) {
	// The member points at a household row that no longer exists. That is a
	// data-integrity fault and surfaces as 404, not a zero-value success.
	mock, r := newMemberRouter(t, superAdmin())

	mock.ExpectQuery("SELECT household_id FROM family_members").WithArgs("fm-1").
		WillReturnRows(sqlmock.NewRows([]string{"household_id"}).AddRow("hh-gone"))
	mock.ExpectQuery("SELECT ward_id FROM households").WithArgs("hh-gone").
		WillReturnRows(sqlmock.NewRows([]string{"ward_id"}))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/family-members/fm-1", nil))

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestGetFamilyMemberHandler_OutOfScopeForbidden(t *testing.T) {
	mock, r := newMemberRouter(t, wardMember("ward-1"))

	expectMemberWardResolution(mock, "fm-2", "hh-2", "ward-2")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/family-members/fm-2", nil))

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Code)
	}
}

func TestGetFamilyMemberHandler_Success(t *testing.T) {
	mock, r := newMemberRouter(t, agent("ward-1"))

	expectMemberWardResolution(mock, "fm-1", "hh-1", "ward-1")
	mock.ExpectQuery("SELECT.*FROM family_members.*WHERE id").WithArgs("fm-1").
		WillReturnRows(sampleMemberRow("fm-1", "hh-1"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/family-members/fm-1", nil))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200: body=%s", w.Code, w.Body.String())
	}
}

// ---------------------------------------------------------------------------
// UpdateFamilyMemberHandler
// ---------------------------------------------------------------------------

func TestUpdateFamilyMemberHandler_HouseholdUnchanged(t *testing.T) {
	// Members never move between households through updates.
	mock, r := newMemberRouter(t, superAdmin())

	expectMemberWardResolution(mock, "fm-1", "hh-1", "ward-1")
	mock.ExpectQuery("SELECT.*FROM family_members.*WHERE id").WithArgs("fm-1").
		WillReturnRows(sampleMemberRow("fm-1", "hh-1"))
	mock.ExpectExec("UPDATE family_members").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery("INSERT INTO audit_logs").WillReturnRows(auditSeqRow())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("PUT", "/family-members/fm-1", jsonBody(map[string]interface{}{
		"occupation":  "Retired teacher",
		"householdId": "hh-99",
	})))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: body=%s", w.Code, w.Body.String())
	}
	member := getJSON(w)["member"].(map[string]interface{})
	if member["HouseholdID"] != "hh-1" {
		t.Errorf("HouseholdID = %v, want unchanged hh-1", member["HouseholdID"])
	}
	if member["Occupation"] != "Retired teacher" {
		t.Errorf("Occupation = %v, want Retired teacher", member["Occupation"])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

// ---------------------------------------------------------------------------
// DeleteFamilyMemberHandler
// ---------------------------------------------------------------------------

func TestDeleteFamilyMemberHandler_Success(t *testing.T) {
	mock, r := newMemberRouter(t, agent("ward-1"))

	expectMemberWardResolution(mock, "fm-1", "hh-1", "ward-1")
	mock.ExpectExec("DELETE FROM family_members").WithArgs("fm-1").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery("INSERT INTO audit_logs").WillReturnRows(auditSeqRow())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("DELETE", "/family-members/fm-1", nil))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200: body=%s", w.Code, w.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
