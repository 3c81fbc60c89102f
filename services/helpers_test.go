package services

import (
	"bytes"
	"mime/multipart"
	"net/textproto"
	"testing"

	"github.com/kendall-kelly/makanika-api/models"
	"github.com/kendall-kelly/makanika-api/tests/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var testHasher = BcryptHasher{Cost: bcrypt.MinCost}

// observedLogger returns a logger whose entries at or above warn are captured
func observedLogger() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.WarnLevel)
	return zap.New(core), logs
}

type fixture struct {
	db       *gorm.DB
	admin    models.User
	mechanic models.User
	other    models.User
	customer models.User
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db := testutil.NewTestDB(t)
	return fixture{
		db:       db,
		admin:    testutil.CreateUser(t, db, "Admin", "admin@makanika.test", models.RoleAdmin),
		mechanic: testutil.CreateUser(t, db, "Mike Mechanic", "mike@makanika.test", models.RoleMechanic),
		other:    testutil.CreateUser(t, db, "Olga Mechanic", "olga@makanika.test", models.RoleMechanic),
		customer: testutil.CreateUser(t, db, "Carol Customer", "carol@example.com", models.RoleCustomer),
	}
}

func newFileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	h.Set("Content-Type", "application/octet-stream")
	part, err := writer.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	form, err := multipart.NewReader(body, writer.Boundary()).ReadForm(int64(len(content)) + 1024)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })

	require.Len(t, form.File["file"], 1)
	return form.File["file"][0]
}
