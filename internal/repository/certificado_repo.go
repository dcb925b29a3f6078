package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/certilote/certify-engine/internal/domain"
)

type CertificadoRepository interface {
	Upsert(ctx context.Context, certificado *domain.Certificado) error
	GetByLoteID(ctx context.Context, loteID int64) (*domain.Certificado, error)
}

type GormCertificadoRepo struct {
	db *gorm.DB
}

func NewGormCertificadoRepo(db *gorm.DB) *GormCertificadoRepo {
	return &GormCertificadoRepo{db: db}
}

// Upsert writes the certificate for a lote. The first writer wins: a
// conflicting insert on lote_id is a no-op, so redelivered queue messages
// never replace an existing certificate.
func (r *GormCertificadoRepo) Upsert(ctx context.Context, certificado *domain.Certificado) error {
	model, err := certificadoModelFromDomain(certificado)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "lote_id"}},
			DoNothing: true,
		}).
		Create(model).Error
}

func (r *GormCertificadoRepo) GetByLoteID(ctx context.Context, loteID int64) (*domain.Certificado, error) {
	var model CertificadoModel
	err := r.db.WithContext(ctx).
		Where("lote_id = ?", loteID).
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return certificadoModelToDomain(&model)
}
