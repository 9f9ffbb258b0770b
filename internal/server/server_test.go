package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/leaseline/leaseline/internal/clock"
	commdomain "github.com/leaseline/leaseline/internal/comm/domain"
	commrepo "github.com/leaseline/leaseline/internal/comm/repository"
	commsvc "github.com/leaseline/leaseline/internal/comm/service"
	"github.com/leaseline/leaseline/internal/config"
	"github.com/leaseline/leaseline/internal/observability/metrics"
	persondomain "github.com/leaseline/leaseline/internal/person/domain"
	personrepo "github.com/leaseline/leaseline/internal/person/repository"
	personsvc "github.com/leaseline/leaseline/internal/person/service"
	"github.com/leaseline/leaseline/internal/phonenumber"
	programdomain "github.com/leaseline/leaseline/internal/program/domain"
	programrepo "github.com/leaseline/leaseline/internal/program/repository"
	programsvc "github.com/leaseline/leaseline/internal/program/service"
	queuedomain "github.com/leaseline/leaseline/internal/queue/domain"
	queuerepo "github.com/leaseline/leaseline/internal/queue/repository"
	queuesvc "github.com/leaseline/leaseline/internal/queue/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestServer(t *testing.T) (*Server, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, conn.AutoMigrate(
		&queuedomain.InboundEvent{}, &queuedomain.DeadLetter{},
		&programdomain.Program{},
		&commdomain.Communication{}, &commdomain.SpamRecord{},
		&persondomain.Person{}, &persondomain.ContactInfo{},
	))

	node, err := snowflake.NewNode(6)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	log := zap.NewNop()

	holder := &config.IngestConfigHolder{}
	holder.Store(config.DefaultIngestConfig())

	queue := queuesvc.New(queuesvc.Params{
		DB: conn, Log: log, GenID: node, Clock: clk,
		Repo:    queuerepo.Provide(node),
		Metrics: metrics.NewWithRegistry(prometheus.NewRegistry()),
	})
	programs := programsvc.New(programsvc.Params{
		DB: conn, Log: log, GenID: node, Clock: clk,
		Repo: programrepo.Provide(), IngestCfg: holder,
		Numbers: phonenumber.NewStaticResolver(),
	})
	comms := commsvc.New(commsvc.Params{
		DB: conn, Log: log, GenID: node, Clock: clk, Repo: commrepo.Provide(),
	})
	persons := personsvc.New(personsvc.Params{DB: conn, Log: log, Repo: personrepo.Provide()})

	srv := New(Params{
		Config:   config.Config{HTTPAddr: ":0"},
		Log:      log,
		Queue:    queue,
		Programs: programs,
		Comms:    comms,
		Persons:  persons,
	})
	return srv, conn
}

func doJSON(t *testing.T, srv *Server, method, path, tenant, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if tenant != "" {
		req.Header.Set("X-Tenant-ID", tenant)
	}
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSMSWebhook_EnqueuesDurably(t *testing.T) {
	srv, conn := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/webhooks/sms", "7001",
		`{"message_id":"msg-1","from":"(555) 123-4567","to":"5559990000","text":"hi"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"accepted":true`)

	var event queuedomain.InboundEvent
	require.NoError(t, conn.First(&event).Error)
	assert.Equal(t, "msg-1", event.MessageID)
	assert.Equal(t, commdomain.ChannelSMS, event.Channel)
	assert.Equal(t, queuedomain.StatusPending, event.Status)
	assert.Contains(t, string(event.Payload), `"from":"5551234567"`, "payload stored normalized")
}

func TestSMSWebhook_RedeliveryAcceptedOnce(t *testing.T) {
	srv, conn := newTestServer(t)
	body := `{"message_id":"msg-1","from":"5551234567","to":"5559990000","text":"hi"}`

	first := doJSON(t, srv, http.MethodPost, "/webhooks/sms", "7001", body)
	require.Equal(t, http.StatusOK, first.Code)

	second := doJSON(t, srv, http.MethodPost, "/webhooks/sms", "7001", body)
	require.Equal(t, http.StatusOK, second.Code, "provider retry still gets a 200")
	assert.Contains(t, second.Body.String(), `"accepted":false`)

	var count int64
	require.NoError(t, conn.Model(&queuedomain.InboundEvent{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestWebhook_MissingTenantRejected(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/webhooks/sms", "",
		`{"message_id":"msg-1","from":"5551234567","to":"5559990000"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhook_InvalidPayloadRejected(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/webhooks/sms", "7001", `{"from":"5551234567"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebInquiryWebhook_FallsBackToPhone(t *testing.T) {
	srv, conn := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/webhooks/web", "7001",
		`{"inquiry_id":"inq-1","name":"Sam Park","phone":"5551234567","to":"leasing@sunset.example.com","message":"2BR?"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var event queuedomain.InboundEvent
	require.NoError(t, conn.First(&event).Error)
	assert.Equal(t, commdomain.ChannelWeb, event.Channel)
	assert.Contains(t, string(event.Payload), `"from":"5551234567"`)
}

func TestCreateAndListPrograms(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/v1/programs", "7001",
		`{"name":"Main Line","direct_address":"5559990000","team_id":"60","property_id":"70"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	dup := doJSON(t, srv, http.MethodPost, "/v1/programs", "7001",
		`{"name":"Clone","direct_address":"(555) 999-0000","team_id":"61","property_id":"71"}`)
	assert.Equal(t, http.StatusConflict, dup.Code)

	list := doJSON(t, srv, http.MethodGet, "/v1/programs", "7001", "")
	require.Equal(t, http.StatusOK, list.Code)
	assert.Contains(t, list.Body.String(), "Main Line")

	other := doJSON(t, srv, http.MethodGet, "/v1/programs", "9999", "")
	require.Equal(t, http.StatusOK, other.Code)
	assert.NotContains(t, other.Body.String(), "Main Line", "programs are tenant scoped")
}

func TestMarkSpam(t *testing.T) {
	srv, conn := newTestServer(t)
	require.NoError(t, conn.Create(&persondomain.Person{ID: 1, TenantID: 7001}).Error)
	require.NoError(t, conn.Create(&persondomain.ContactInfo{
		ID: 11, TenantID: 7001, PersonID: 1,
		Type: persondomain.ContactPhone, Value: "5551234567",
	}).Error)

	rec := doJSON(t, srv, http.MethodPost, "/v1/spam", "7001",
		`{"type":"phone","value":"(555) 123-4567","spam":true}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var contact persondomain.ContactInfo
	require.NoError(t, conn.First(&contact, "id = ?", 11).Error)
	assert.True(t, contact.IsSpam)

	bad := doJSON(t, srv, http.MethodPost, "/v1/spam", "7001",
		`{"type":"fax","value":"5551234567","spam":true}`)
	assert.Equal(t, http.StatusBadRequest, bad.Code)
}

func TestListThread(t *testing.T) {
	srv, conn := newTestServer(t)
	require.NoError(t, conn.Create(&commdomain.Communication{
		ID: 1, TenantID: 7001, ThreadID: "thread-1",
		Type: commdomain.ChannelSMS, MessageID: "msg-1",
		Message: []byte(`{}`),
	}).Error)

	rec := doJSON(t, srv, http.MethodGet, "/v1/threads/thread-1", "7001", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "msg-1")

	other := doJSON(t, srv, http.MethodGet, "/v1/threads/thread-1", "9999", "")
	require.Equal(t, http.StatusOK, other.Code)
	assert.NotContains(t, other.Body.String(), "msg-1")
}
