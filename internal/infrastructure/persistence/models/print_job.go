// Package models holds the gorm models for persisted aggregates.
package models

import (
	"time"

	"github.com/binara/printsvc/internal/domain/printing"
	"github.com/binara/printsvc/internal/domain/shared"
	"github.com/google/uuid"
)

// PrintJobModel is the GORM model for print_jobs table
type PrintJobModel struct {
	ID             uuid.UUID  `gorm:"type:uuid;primary_key"`
	DocumentType   string     `gorm:"column:document_type;type:varchar(50);not null;index"`
	DocumentNumber string     `gorm:"column:document_number;type:varchar(100);not null"`
	Target         string     `gorm:"type:varchar(100);not null;index"`
	Backend        string     `gorm:"type:varchar(30);not null"`
	Status         string     `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	Copies         int        `gorm:"not null;default:1"`
	Pages          int        `gorm:"not null;default:0"`
	Bytes          int        `gorm:"not null;default:0"`
	OutputPath     string     `gorm:"column:output_path;type:text"`
	ErrorCode      string     `gorm:"column:error_code;type:varchar(40)"`
	ErrorMessage   string     `gorm:"column:error_message;type:text"`
	Warnings       []string   `gorm:"type:text;serializer:json"`
	PrintedAt      *time.Time `gorm:"column:printed_at"`
	CreatedAt      time.Time  `gorm:"not null"`
	UpdatedAt      time.Time  `gorm:"not null"`
	Version        int        `gorm:"not null;default:1"`
}

// TableName returns the table name for PrintJobModel
func (PrintJobModel) TableName() string {
	return "print_jobs"
}

// ToDomain converts PrintJobModel to domain PrintJob
func (m *PrintJobModel) ToDomain() *printing.PrintJob {
	return &printing.PrintJob{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: shared.BaseEntity{
				ID:        m.ID,
				CreatedAt: m.CreatedAt,
				UpdatedAt: m.UpdatedAt,
			},
			Version: m.Version,
		},
		DocumentType:   printing.DocType(m.DocumentType),
		DocumentNumber: m.DocumentNumber,
		Target:         m.Target,
		Backend:        printing.BackendKind(m.Backend),
		Status:         printing.JobStatus(m.Status),
		Copies:         m.Copies,
		Pages:          m.Pages,
		Bytes:          m.Bytes,
		OutputPath:     m.OutputPath,
		ErrorCode:      printing.ErrorKind(m.ErrorCode),
		ErrorMessage:   m.ErrorMessage,
		Warnings:       m.Warnings,
		PrintedAt:      m.PrintedAt,
	}
}

// PrintJobModelFromDomain creates a PrintJobModel from domain PrintJob
func PrintJobModelFromDomain(j *printing.PrintJob) *PrintJobModel {
	return &PrintJobModel{
		ID:             j.ID,
		DocumentType:   string(j.DocumentType),
		DocumentNumber: j.DocumentNumber,
		Target:         j.Target,
		Backend:        string(j.Backend),
		Status:         string(j.Status),
		Copies:         j.Copies,
		Pages:          j.Pages,
		Bytes:          j.Bytes,
		OutputPath:     j.OutputPath,
		ErrorCode:      string(j.ErrorCode),
		ErrorMessage:   j.ErrorMessage,
		Warnings:       j.Warnings,
		PrintedAt:      j.PrintedAt,
		CreatedAt:      j.CreatedAt,
		UpdatedAt:      j.UpdatedAt,
		Version:        j.Version,
	}
}
