package syncer

import (
	"io"
	"log"
	"testing"
	"time"

	"github.com/code-100-precent/IntakeDesk/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	glog "gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	silentLogger := glog.New(
		log.New(io.Discard, "", log.LstdFlags),
		glog.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  glog.Silent,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: silentLogger,
	})
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	if err := db.AutoMigrate(&models.Bot{}, &models.CallLog{}); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	return db
}

func TestReconcileCreatesAndUpdates(t *testing.T) {
	db := setupTestDB(t)

	first := Reconcile(db, []map[string]any{
		{"id": "om_1", "name": "Clinic Line"},
		{"uid": "om_2", "title": "Law Office Intake", "prompt": "attorney consultations"},
	})
	assert.Equal(t, 2, first.TotalFetched)
	assert.Equal(t, 2, first.Created)
	assert.Equal(t, 0, first.Updated)
	assert.Empty(t, first.Errors)

	second := Reconcile(db, []map[string]any{
		{"id": "om_1", "name": "Clinic Line Renamed"},
	})
	assert.Equal(t, 0, second.Created)
	assert.Equal(t, 1, second.Updated)

	bot, err := models.GetBotByUID(db, "om_1")
	require.NoError(t, err)
	assert.Equal(t, "Clinic Line Renamed", bot.Name)
}

func TestReconcileSkipsRecordsWithoutID(t *testing.T) {
	db := setupTestDB(t)

	result := Reconcile(db, []map[string]any{
		{"name": "No ID Here"},
		{"id": "om_ok", "name": "Fine"},
	})

	assert.Equal(t, 2, result.TotalFetched)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.Skipped)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Bot missing UID")
}

func TestReconcileIDFieldPriority(t *testing.T) {
	db := setupTestDB(t)

	Reconcile(db, []map[string]any{
		{"agentId": "low", "agent_id": "mid", "id": "high", "name": "Priority"},
	})

	_, err := models.GetBotByUID(db, "high")
	assert.NoError(t, err)
}

func TestReconcileNameFallback(t *testing.T) {
	db := setupTestDB(t)

	Reconcile(db, []map[string]any{{"id": "om_nameless"}})

	bot, err := models.GetBotByUID(db, "om_nameless")
	require.NoError(t, err)
	assert.Equal(t, "OpenMic Bot om_nameless", bot.Name)
}

func TestClassifyDomain(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"Dr. Smith patient line", models.DomainMedical},
		{"attorney consultations", models.DomainLegal},
		{"front desk after hours", models.DomainReceptionist},
		// legal keywords outrank medical ones
		{"legal advice for medical malpractice", models.DomainLegal},
		// receptionist outranks medical
		{"clinic front desk", models.DomainReceptionist},
		{"nothing recognizable", models.DomainMedical},
		{"", models.DomainMedical},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ClassifyDomain(tc.text), "text: %q", tc.text)
	}
}
