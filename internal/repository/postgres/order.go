package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/medilink/pharmacare-api/internal/model"
)

func (r *orderRepository) CreateWithItems(ctx context.Context, o *model.Order, items []*model.OrderItem, evt *model.OutboxEvent) error {
	o.ID = uuid.New()
	touch(&o.Base)

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO orders (id, patient_id, pharmacy_id, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`
		if _, err := tx.ExecContext(ctx, query,
			o.ID,
			o.PatientID,
			o.PharmacyID,
			o.Status,
			o.CreatedAt,
			o.UpdatedAt,
		); err != nil {
			return translateError(err, "order")
		}

		itemQuery := `
			INSERT INTO order_items (id, order_id, medicine_id, prescription_id, quantity)
			VALUES ($1, $2, $3, $4, $5)
		`
		for _, item := range items {
			item.ID = uuid.New()
			item.OrderID = o.ID
			if _, err := tx.ExecContext(ctx, itemQuery,
				item.ID,
				item.OrderID,
				item.MedicineID,
				item.PrescriptionID,
				item.Quantity,
			); err != nil {
				return translateError(err, "order item")
			}
		}

		return r.insertOutboxEvent(ctx, tx, evt)
	})
}

func (r *orderRepository) GetForPatient(ctx context.Context, id, patientID uuid.UUID) (*model.Order, error) {
	query := `
		SELECT id, patient_id, pharmacy_id, status, created_at, updated_at
		FROM orders
		WHERE id = $1 AND patient_id = $2
	`
	var order model.Order
	if err := r.db.GetContext(ctx, &order, query, id, patientID); err != nil {
		return nil, translateError(err, "order")
	}
	return &order, nil
}

func (r *orderRepository) GetForPharmacy(ctx context.Context, id, pharmacyID uuid.UUID) (*model.Order, error) {
	query := `
		SELECT id, patient_id, pharmacy_id, status, created_at, updated_at
		FROM orders
		WHERE id = $1 AND pharmacy_id = $2
	`
	var order model.Order
	if err := r.db.GetContext(ctx, &order, query, id, pharmacyID); err != nil {
		return nil, translateError(err, "order")
	}
	return &order, nil
}

func (r *orderRepository) GetItems(ctx context.Context, orderID uuid.UUID) ([]*model.OrderItemDetail, error) {
	query := `
		SELECT oi.id, oi.order_id, oi.medicine_id, oi.prescription_id, oi.quantity,
			   m.name AS medicine_name, m.unit_price
		FROM order_items oi
		JOIN medicines m ON m.id = oi.medicine_id
		WHERE oi.order_id = $1
	`
	var items []*model.OrderItemDetail
	if err := r.db.SelectContext(ctx, &items, query, orderID); err != nil {
		return nil, fmt.Errorf("failed to get order items: %w", err)
	}
	return items, nil
}

func (r *orderRepository) ListByPatient(ctx context.Context, patientID uuid.UUID, page model.Pagination) ([]*model.Order, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM orders WHERE patient_id = $1`, patientID); err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	query := `
		SELECT id, patient_id, pharmacy_id, status, created_at, updated_at
		FROM orders
		WHERE patient_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	var orders []*model.Order
	if err := r.db.SelectContext(ctx, &orders, query, patientID, page.Limit, page.Offset()); err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, total, nil
}

func (r *orderRepository) ListByPharmacy(ctx context.Context, pharmacyID uuid.UUID, page model.Pagination) ([]*model.Order, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM orders WHERE pharmacy_id = $1`, pharmacyID); err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	query := `
		SELECT id, patient_id, pharmacy_id, status, created_at, updated_at
		FROM orders
		WHERE pharmacy_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	var orders []*model.Order
	if err := r.db.SelectContext(ctx, &orders, query, pharmacyID, page.Limit, page.Offset()); err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, total, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus, evt *model.OutboxEvent) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			UPDATE orders
			SET status = $1, updated_at = $2
			WHERE id = $3
		`
		result, err := tx.ExecContext(ctx, query, status, time.Now(), id)
		if err != nil {
			return fmt.Errorf("failed to update order status: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return fmt.Errorf("order not found")
		}

		return r.insertOutboxEvent(ctx, tx, evt)
	})
}
