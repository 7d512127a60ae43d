package dao

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrTicketNotFound = errors.New("ticket not found")
	ErrPrizeNotFound  = errors.New("prize not found")
)

type Ticket struct {
	ID          string    `gorm:"type:uuid;primaryKey"`
	Name        string    `gorm:"not null"`
	Description string    `gorm:"not null"`
	Price       float64   `gorm:"not null"`
	Quantity    int       `gorm:"not null"`
	LimitByUser int       `gorm:"not null"`
	Status      string    `gorm:"not null;default:running"`
	StartDate   time.Time `gorm:"not null"`
	EndDate     *time.Time
	Quotas      []Quota `gorm:"foreignKey:TicketID;constraint:OnDelete:CASCADE"`
	Prizes      []Prize `gorm:"foreignKey:TicketID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (t *Ticket) BeforeCreate(*gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// Quota is one row per (ticket, drawn number). The unique index makes every
// conditional update a single-row compare-and-swap.
type Quota struct {
	ID          uint       `gorm:"primaryKey"`
	TicketID    string     `gorm:"type:uuid;not null;uniqueIndex:idx_quotas_ticket_number;index:idx_quotas_ticket_payment,priority:1"`
	DrawnNumber string     `gorm:"not null;uniqueIndex:idx_quotas_ticket_number"`
	Status      string     `gorm:"not null;default:available;index"`
	BuyerID     *string    `gorm:"type:uuid"`
	PaymentID   *string    `gorm:"index:idx_quotas_ticket_payment,priority:2"`
	ReservedAt  *time.Time `gorm:"index"`
	UpdatedAt   time.Time
}

type Prize struct {
	ID              string   `gorm:"type:uuid;primaryKey"`
	TicketID        string   `gorm:"type:uuid;not null;index"`
	Name            string   `gorm:"not null"`
	Description     string   `gorm:"not null"`
	Images          []string `gorm:"serializer:json"`
	EquivalentPrice float64  `gorm:"not null"`
	DrawnNumber     string   `gorm:"not null"`
	CreatedAt       time.Time
}

func (p *Prize) BeforeCreate(*gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

type TicketDAO struct {
	db *gorm.DB
}

func NewTicketDAO(db *gorm.DB) *TicketDAO {
	return &TicketDAO{
		db: db,
	}
}

// Insert stores the ticket together with all of its quotas and prizes in one transaction.
func (d *TicketDAO) Insert(ctx context.Context, ticket Ticket) (Ticket, error) {
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		quotas, prizes := ticket.Quotas, ticket.Prizes
		ticket.Quotas, ticket.Prizes = nil, nil

		if err := tx.Create(&ticket).Error; err != nil {
			return err
		}

		for i := range quotas {
			quotas[i].TicketID = ticket.ID
		}
		if len(quotas) > 0 {
			if err := tx.CreateInBatches(&quotas, 500).Error; err != nil {
				return err
			}
		}

		for i := range prizes {
			prizes[i].TicketID = ticket.ID
		}
		if len(prizes) > 0 {
			if err := tx.Create(&prizes).Error; err != nil {
				return err
			}
		}

		ticket.Quotas, ticket.Prizes = quotas, prizes
		return nil
	})
	if err != nil {
		return Ticket{}, err
	}

	return ticket, nil
}

func (d *TicketDAO) FindByID(ctx context.Context, id string) (Ticket, error) {
	var ticket Ticket

	result := d.db.WithContext(ctx).
		Preload("Quotas", func(db *gorm.DB) *gorm.DB { return db.Order("drawn_number") }).
		Preload("Prizes", func(db *gorm.DB) *gorm.DB { return db.Order("created_at") }).
		First(&ticket, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) || isInvalidID(result.Error) {
			return Ticket{}, ErrTicketNotFound
		}

		return Ticket{}, result.Error
	}

	return ticket, nil
}

func (d *TicketDAO) FindAll(ctx context.Context) ([]Ticket, error) {
	var tickets []Ticket

	result := d.db.WithContext(ctx).
		Preload("Quotas", func(db *gorm.DB) *gorm.DB { return db.Order("drawn_number") }).
		Preload("Prizes").
		Order("created_at").
		Find(&tickets)
	if result.Error != nil {
		return nil, result.Error
	}

	return tickets, nil
}

func (d *TicketDAO) Update(ctx context.Context, id string, values map[string]interface{}) error {
	result := d.db.WithContext(ctx).Model(&Ticket{}).Where("id = ?", id).Updates(values)
	if result.Error != nil {
		if isInvalidID(result.Error) {
			return ErrTicketNotFound
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTicketNotFound
	}

	return nil
}

func (d *TicketDAO) Delete(ctx context.Context, id string) error {
	result := d.db.WithContext(ctx).Delete(&Ticket{}, "id = ?", id)
	if result.Error != nil {
		if isInvalidID(result.Error) {
			return ErrTicketNotFound
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTicketNotFound
	}

	return nil
}

func (d *TicketDAO) InsertPrize(ctx context.Context, prize Prize) (Prize, error) {
	if err := d.db.WithContext(ctx).Create(&prize).Error; err != nil {
		return Prize{}, err
	}

	return prize, nil
}

func (d *TicketDAO) DeletePrize(ctx context.Context, ticketID, prizeID string) error {
	result := d.db.WithContext(ctx).Delete(&Prize{}, "ticket_id = ? AND id = ?", ticketID, prizeID)
	if result.Error != nil {
		if isInvalidID(result.Error) {
			return ErrPrizeNotFound
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPrizeNotFound
	}

	return nil
}

// UpdateQuotaByDrawnNumber applies values to the quota only while its status is one of expected.
// It returns the number of rows matched; zero means the expectation no longer held.
func (d *TicketDAO) UpdateQuotaByDrawnNumber(ctx context.Context, ticketID, drawnNumber string, expected []string, values map[string]interface{}) (int64, error) {
	result := d.db.WithContext(ctx).Model(&Quota{}).
		Where("ticket_id = ? AND drawn_number = ? AND status IN ?", ticketID, drawnNumber, expected).
		Updates(values)
	if result.Error != nil {
		if isInvalidID(result.Error) {
			return 0, ErrTicketNotFound
		}
		return 0, result.Error
	}

	return result.RowsAffected, nil
}

// UpdateQuotaByPaymentID is the payment-keyed variant of UpdateQuotaByDrawnNumber.
func (d *TicketDAO) UpdateQuotaByPaymentID(ctx context.Context, ticketID, paymentID string, expected []string, values map[string]interface{}) (int64, error) {
	result := d.db.WithContext(ctx).Model(&Quota{}).
		Where("ticket_id = ? AND payment_id = ? AND status IN ?", ticketID, paymentID, expected).
		Updates(values)
	if result.Error != nil {
		if isInvalidID(result.Error) {
			return 0, ErrTicketNotFound
		}
		return 0, result.Error
	}

	return result.RowsAffected, nil
}

func (d *TicketDAO) FindQuotaByPaymentID(ctx context.Context, ticketID, paymentID string) (Quota, bool, error) {
	var quota Quota

	result := d.db.WithContext(ctx).
		Where("ticket_id = ? AND payment_id = ?", ticketID, paymentID).
		Limit(1).
		Find(&quota)
	if result.Error != nil {
		if isInvalidID(result.Error) {
			return Quota{}, false, ErrTicketNotFound
		}
		return Quota{}, false, result.Error
	}

	return quota, result.RowsAffected > 0, nil
}

// FindPendingBefore lists pending quotas reserved before the given instant, oldest first.
func (d *TicketDAO) FindPendingBefore(ctx context.Context, before time.Time, limit int) ([]Quota, error) {
	var quotas []Quota

	result := d.db.WithContext(ctx).
		Where("status = ? AND reserved_at < ?", "pending", before).
		Order("reserved_at").
		Limit(limit).
		Find(&quotas)
	if result.Error != nil {
		return nil, result.Error
	}

	return quotas, nil
}

// isInvalidID reports whether postgres rejected an id that is not a well formed uuid.
func isInvalidID(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.InvalidTextRepresentation
}
