package order

import (
	"context"
	"testing"

	"savora-be/internal/address"
	"savora-be/internal/catalog"
	"savora-be/internal/pricing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOrder(ref catalog.ProductRef) *Order {
	o := &Order{
		ID:           uuid.New(),
		Number:       "ORD-20260901-120000-001-abcd",
		Status:       StatusPending,
		PaymentState: PaymentStateUnpaid,
		Address:      address.Form{FullName: "Dana Osei", Line1: "12 Crescent Rd", City: "Springfield", Region: "IL", PostalCode: "62701", Country: "US"},
		Totals:       pricing.Totals{Subtotal: 2400, DeliveryFee: 500, Tax: 192, GrandTotal: 3092},
	}
	o.Items = []Item{{
		ID: uuid.New(), OrderID: o.ID, Ref: ref, Name: "Pad Thai",
		Quantity: 2, UnitPrice: 1200, Subtotal: 2400,
	}}
	return o
}

func TestRepository_CreateOrderTx(t *testing.T) {
	menuRef := catalog.ProductRef{Kind: catalog.KindMenuItem, ID: "m-1"}
	legacyRef := catalog.ProductRef{Kind: catalog.KindLegacy, ID: "l-1"}

	t.Run("Success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		o := testOrder(menuRef)

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO orders").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("SELECT available FROM menu_items").
			WithArgs("m-1").
			WillReturnRows(sqlmock.NewRows([]string{"available"}).AddRow(true))
		mock.ExpectExec("INSERT INTO order_items").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err = NewRepository(db).CreateOrderTx(context.Background(), o)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("UnavailableItemRejects", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		o := testOrder(menuRef)

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO orders").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("SELECT available FROM menu_items").
			WithArgs("m-1").
			WillReturnRows(sqlmock.NewRows([]string{"available"}).AddRow(false))
		mock.ExpectRollback()

		err = NewRepository(db).CreateOrderTx(context.Background(), o)

		var rej *PlacementRejection
		require.ErrorAs(t, err, &rej)
		assert.Equal(t, "Pad Thai", rej.LineName)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("MissingRowPassesDegraded", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		o := testOrder(menuRef)

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO orders").WillReturnResult(sqlmock.NewResult(0, 1))
		// Row is gone: the line was snapshot-resolved and stays purchasable.
		mock.ExpectQuery("SELECT available FROM menu_items").
			WithArgs("m-1").
			WillReturnRows(sqlmock.NewRows([]string{"available"}))
		mock.ExpectExec("INSERT INTO order_items").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err = NewRepository(db).CreateOrderTx(context.Background(), o)
		assert.NoError(t, err)
	})

	t.Run("InsufficientStockRejects", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		o := testOrder(legacyRef)

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO orders").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("UPDATE legacy_products").
			WithArgs(2, "l-1").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs("l-1").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
		mock.ExpectRollback()

		err = NewRepository(db).CreateOrderTx(context.Background(), o)

		var rej *PlacementRejection
		require.ErrorAs(t, err, &rej)
		assert.Equal(t, "insufficient stock", rej.Reason)
	})

	t.Run("StockDecrementedAtomically", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		o := testOrder(legacyRef)

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO orders").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("UPDATE legacy_products").
			WithArgs(2, "l-1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO order_items").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err = NewRepository(db).CreateOrderTx(context.Background(), o)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("DiscountUsageRecordedOnce", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		o := testOrder(menuRef)
		codeID := uuid.New()
		o.DiscountCodeID = &codeID

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO orders").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("SELECT available FROM menu_items").
			WillReturnRows(sqlmock.NewRows([]string{"available"}).AddRow(true))
		mock.ExpectExec("INSERT INTO order_items").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO discount_usages").
			WithArgs(&codeID, o.ID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err = NewRepository(db).CreateOrderTx(context.Background(), o)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
