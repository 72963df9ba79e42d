package services

import (
	"errors"

	"github.com/diewo77/go-albaranes/internal/models"
	"github.com/diewo77/go-albaranes/internal/store"
	"gorm.io/gorm"
)

var (
	// ErrCIFInUse means another company already holds the CIF.
	ErrCIFInUse = errors.New("cif already in use")
	// ErrNoCompanyLinked means the user has no company to operate on.
	ErrNoCompanyLinked = errors.New("user has no company")
)

// CompanyService implements the upsert-by-CIF tenant semantics: creating a
// company whose CIF already exists links the user to the existing tenant
// instead of erroring.
type CompanyService struct {
	db *gorm.DB
}

func NewCompanyService(db *gorm.DB) *CompanyService {
	return &CompanyService{db: db}
}

// CompanyInput is the mutable set of company fields.
type CompanyInput struct {
	Name     string `json:"name"`
	CIF      string `json:"cif"`
	Street   string `json:"street"`
	Number   int    `json:"number"`
	Postal   int    `json:"postal"`
	City     string `json:"city"`
	Province string `json:"province"`
}

func (in CompanyInput) assign(c *models.Company) {
	c.Name = in.Name
	c.CIF = in.CIF
	c.Street = in.Street
	c.Number = in.Number
	c.Postal = in.Postal
	c.City = in.City
	c.Province = in.Province
}

// Register applies the upsert-by-CIF rule for the given user. The returned
// bool is true when the user was linked to a pre-existing company.
func (s *CompanyService) Register(user *models.User, in CompanyInput) (*models.Company, bool, error) {
	existing, err := store.First[models.Company](s.db, store.Active, "cif = ?", in.CIF)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}
	if existing != nil {
		user.CompanyID = &existing.ID
		if err := s.db.Save(user).Error; err != nil {
			return nil, false, err
		}
		return existing, true, nil
	}

	if user.CompanyID != nil {
		company, err := store.First[models.Company](s.db, store.Active, "id = ?", *user.CompanyID)
		if err != nil {
			return nil, false, err
		}
		in.assign(company)
		if err := s.db.Save(company).Error; err != nil {
			return nil, false, err
		}
		return company, false, nil
	}

	company := &models.Company{}
	in.assign(company)
	if err := s.db.Create(company).Error; err != nil {
		return nil, false, err
	}
	user.CompanyID = &company.ID
	if err := s.db.Save(user).Error; err != nil {
		return nil, false, err
	}
	return company, false, nil
}

// Update rewrites the user's company. Unlike Register it treats a CIF held
// by a different company as a conflict instead of linking to it.
func (s *CompanyService) Update(user *models.User, in CompanyInput) (*models.Company, error) {
	var ownID uint
	if user.CompanyID != nil {
		ownID = *user.CompanyID
	}
	taken, err := store.Exists[models.Company](s.db, store.Active, "cif = ? AND id <> ?", in.CIF, ownID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrCIFInUse
	}

	if user.CompanyID != nil {
		company, err := store.First[models.Company](s.db, store.Active, "id = ?", *user.CompanyID)
		if err != nil {
			return nil, err
		}
		in.assign(company)
		if err := s.db.Save(company).Error; err != nil {
			return nil, err
		}
		return company, nil
	}

	company := &models.Company{}
	in.assign(company)
	if err := s.db.Create(company).Error; err != nil {
		return nil, err
	}
	user.CompanyID = &company.ID
	if err := s.db.Save(user).Error; err != nil {
		return nil, err
	}
	return company, nil
}

// Delete removes the user's company, soft by default.
func (s *CompanyService) Delete(user *models.User, soft bool) error {
	if user.CompanyID == nil {
		return ErrNoCompanyLinked
	}
	company, err := store.First[models.Company](s.db, store.Active, "id = ?", *user.CompanyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNoCompanyLinked
		}
		return err
	}
	if soft {
		return store.SoftDelete(s.db, company)
	}
	return store.HardDelete(s.db, company)
}
