package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/leaseline/leaseline/internal/clock"
	"github.com/leaseline/leaseline/internal/comm/domain"
	"github.com/leaseline/leaseline/internal/comm/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const testTenant = snowflake.ID(7001)

func newTestService(t *testing.T) (domain.Service, *gorm.DB) {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, conn.AutoMigrate(&domain.Communication{}, &domain.SpamRecord{}))

	node, err := snowflake.NewNode(5)
	require.NoError(t, err)

	svc := New(Params{
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)),
		Repo:  repository.Provide(),
	})
	return svc, conn
}

func recordRequest(messageID string) domain.RecordRequest {
	return domain.RecordRequest{
		TenantID:  testTenant,
		Channel:   domain.ChannelSMS,
		MessageID: messageID,
		ThreadID:  "thread-1",
		PartyIDs:  []snowflake.ID{100},
		PersonIDs: []snowflake.ID{1},
		TeamIDs:   []snowflake.ID{60},
	}
}

func TestRecord_ExactlyOncePerMessage(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	first, created, err := svc.Record(ctx, recordRequest("msg-1"))
	require.NoError(t, err)
	assert.True(t, created)
	assert.True(t, first.Unread)

	second, created, err := svc.Record(ctx, recordRequest("msg-1"))
	require.NoError(t, err)
	assert.False(t, created, "duplicate insert loses quietly")
	assert.Equal(t, first.ID, second.ID, "the stored row is returned")

	var count int64
	require.NoError(t, conn.Model(&domain.Communication{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestRecord_SameMessageIDAcrossTenants(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, created, err := svc.Record(ctx, recordRequest("msg-1"))
	require.NoError(t, err)
	require.True(t, created)

	other := recordRequest("msg-1")
	other.TenantID = 9999
	_, created, err = svc.Record(ctx, other)
	require.NoError(t, err)
	assert.True(t, created, "message ids are provider-scoped per tenant")
}

func TestListThread_OrdersByArrival(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for _, messageID := range []string{"msg-1", "msg-2", "msg-3"} {
		_, _, err := svc.Record(ctx, recordRequest(messageID))
		require.NoError(t, err)
	}

	comms, err := svc.ListThread(ctx, testTenant, "thread-1")
	require.NoError(t, err)
	require.Len(t, comms, 3)
	assert.Equal(t, "msg-1", comms[0].MessageID)
	assert.Equal(t, "msg-3", comms[2].MessageID)
}

func TestRecordSpam(t *testing.T) {
	svc, conn := newTestService(t)

	require.NoError(t, svc.RecordSpam(context.Background(), testTenant, "msg-1", "5551234567", domain.ChannelSMS, nil))

	var record domain.SpamRecord
	require.NoError(t, conn.First(&record).Error)
	assert.Equal(t, "msg-1", record.MessageID)
	assert.Equal(t, "5551234567", record.FromAddress)
	assert.Equal(t, domain.ChannelSMS, record.Type)
	assert.JSONEq(t, "{}", string(record.Message))
}

func TestRecordSpamOncePerMessage(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.RecordSpam(ctx, testTenant, "msg-1", "5551234567", domain.ChannelSMS, nil))
	require.NoError(t, svc.RecordSpam(ctx, testTenant, "msg-1", "5551234567", domain.ChannelSMS, nil))
	require.NoError(t, svc.RecordSpam(ctx, testTenant, "msg-2", "5551234567", domain.ChannelSMS, nil))

	var count int64
	require.NoError(t, conn.Model(&domain.SpamRecord{}).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}
