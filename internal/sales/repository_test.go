package sales

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aurumworks/jewelstore-backend/pkg/db/models"
	"github.com/aurumworks/jewelstore-backend/pkg/enums"
	"github.com/aurumworks/jewelstore-backend/pkg/pagination"
)

func TestRepositoryListInvoicesCursorWalk(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	customer := &models.Customer{ID: uuid.New(), Name: "Iva Stoyanova"}
	require.NoError(t, conn.Create(customer).Error)

	base := time.Now().UTC().Add(-time.Hour)
	var ids []uuid.UUID
	for i := 0; i < 5; i++ {
		invoice := &models.Invoice{
			ID:         uuid.New(),
			CustomerID: customer.ID,
			Status:     enums.InvoiceStatusDraft,
			Date:       base,
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, conn.Create(invoice).Error)
		ids = append(ids, invoice.ID)
	}

	firstPage, err := repo.ListInvoices(ctx, InvoiceFilter{}, pagination.Params{Limit: 2})
	require.NoError(t, err)
	page, hasMore := pagination.TrimPage(firstPage, 2)
	require.Len(t, page, 2)
	assert.True(t, hasMore)
	assert.Equal(t, ids[4], page[0].ID)
	assert.Equal(t, ids[3], page[1].ID)

	cursor := pagination.EncodeCursor(pagination.Cursor{
		CreatedAt: page[1].CreatedAt,
		ID:        page[1].ID,
	})
	secondPage, err := repo.ListInvoices(ctx, InvoiceFilter{}, pagination.Params{Limit: 2, Cursor: cursor})
	require.NoError(t, err)
	page, hasMore = pagination.TrimPage(secondPage, 2)
	require.Len(t, page, 2)
	assert.True(t, hasMore)
	assert.Equal(t, ids[2], page[0].ID)
	assert.Equal(t, ids[1], page[1].ID)
}

func TestRepositoryListInvoicesStatusFilter(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	customer := &models.Customer{ID: uuid.New(), Name: "Iva Stoyanova"}
	require.NoError(t, conn.Create(customer).Error)

	draft := &models.Invoice{ID: uuid.New(), CustomerID: customer.ID, Status: enums.InvoiceStatusDraft, Date: time.Now().UTC()}
	paid := &models.Invoice{ID: uuid.New(), CustomerID: customer.ID, Status: enums.InvoiceStatusPaid, Date: time.Now().UTC()}
	require.NoError(t, conn.Create(draft).Error)
	require.NoError(t, conn.Create(paid).Error)

	rows, err := repo.ListInvoices(ctx, InvoiceFilter{Status: string(enums.InvoiceStatusPaid)}, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, paid.ID, rows[0].ID)
	require.NotNil(t, rows[0].Customer)
	assert.Equal(t, "Iva Stoyanova", rows[0].Customer.Name)
}

func TestRepositoryDeleteInvoiceRemovesLines(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	customer := &models.Customer{ID: uuid.New(), Name: "Iva Stoyanova"}
	require.NoError(t, conn.Create(customer).Error)

	invoice := &models.Invoice{ID: uuid.New(), CustomerID: customer.ID, Status: enums.InvoiceStatusDraft, Date: time.Now().UTC()}
	require.NoError(t, conn.Create(invoice).Error)
	line := &models.InvoiceItem{
		ID:          uuid.New(),
		InvoiceID:   invoice.ID,
		Description: "Silver chain",
		Quantity:    1,
	}
	require.NoError(t, conn.Create(line).Error)

	require.NoError(t, repo.DeleteInvoice(ctx, invoice.ID))

	var invoices, lines int64
	require.NoError(t, conn.Model(&models.Invoice{}).Count(&invoices).Error)
	require.NoError(t, conn.Model(&models.InvoiceItem{}).Count(&lines).Error)
	assert.Zero(t, invoices)
	assert.Zero(t, lines)
}
