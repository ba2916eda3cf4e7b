package bootstrap

import (
	"github.com/code-100-precent/IntakeDesk/internal/models"
	"github.com/code-100-precent/IntakeDesk/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type SeedService struct {
	db *gorm.DB
}

func (s *SeedService) SeedAll() error {
	return s.seedBots()
}

// seedBots writes one demo persona per intake domain so a fresh install has
// something to show. Skipped entirely once any bot exists.
func (s *SeedService) seedBots() error {
	var count int64
	if err := s.db.Model(&models.Bot{}).Count(&count).Error; err != nil {
		return err
	}
	if count != 0 {
		return nil // Data already exists, skip
	}

	defaultBots := []models.Bot{
		{
			Name:   "Dr. Assistant",
			Domain: models.DomainMedical,
			UID:    "demo_medical_bot",
		},
		{
			Name:   "Legal Intake Assistant",
			Domain: models.DomainLegal,
			UID:    "demo_legal_bot",
		},
		{
			Name:   "Front Desk Assistant",
			Domain: models.DomainReceptionist,
			UID:    "demo_receptionist_bot",
		},
	}

	for i := range defaultBots {
		if err := s.db.Create(&defaultBots[i]).Error; err != nil {
			return err
		}
		logger.Info("seeded demo bot",
			zap.String("name", defaultBots[i].Name),
			zap.String("domain", defaultBots[i].Domain),
		)
	}
	return nil
}
