package codec

import (
	"testing"
	"time"

	"github.com/smallbiznis/coursehub/internal/billing/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ownedCourse() domain.Course {
	price := 234.23
	owned := true
	until := time.Date(2024, 5, 1, 12, 0, 0, 0, time.FixedZone("", 3*3600))
	rent := domain.MustParseDuration("P30D")
	return domain.Course{
		Code:       "c1",
		Type:       domain.CourseTypeRent,
		Title:      "Course 1",
		Price:      &price,
		Owned:      &owned,
		OwnedUntil: &until,
		RentTime:   &rent,
	}
}

func TestEncodeAnonOmitsOwnership(t *testing.T) {
	out, err := Encode(ownedCourse(), GroupAnon)
	require.NoError(t, err)
	assert.JSONEq(t, `{"code":"c1","type":"rent","title":"Course 1","price":234.23,"rent_time":"P30D"}`, string(out))
}

func TestEncodeOwnedKeepsOwnership(t *testing.T) {
	out, err := Encode(ownedCourse(), GroupOwned)
	require.NoError(t, err)
	assert.JSONEq(t, `{"code":"c1","type":"rent","title":"Course 1","price":234.23,"owned":true,"owned_until":"2024-05-01T12:00:00+03:00","rent_time":"P30D"}`, string(out))
}

func TestRoundTripOwnedCourse(t *testing.T) {
	in := ownedCourse()
	data, err := Encode(in, GroupOwned)
	require.NoError(t, err)

	var out domain.Course
	require.NoError(t, Decode(data, &out, GroupOwned))

	assert.Equal(t, in.Code, out.Code)
	assert.Equal(t, in.Type, out.Type)
	assert.Equal(t, *in.Price, *out.Price)
	assert.Equal(t, *in.Owned, *out.Owned)
	assert.True(t, in.OwnedUntil.Equal(*out.OwnedUntil))
	assert.Equal(t, *in.RentTime, *out.RentTime)
}

func TestDecodeAnonDropsOwnershipEvenIfSent(t *testing.T) {
	data := []byte(`[{"code":"c2","type":"buy","title":"Course 2","price":100.23,"owned":true},{"code":"c4","type":"free","title":"Course 4"}]`)

	var out []domain.Course
	require.NoError(t, Decode(data, &out, GroupAnon))

	require.Len(t, out, 2)
	assert.Equal(t, "c2", out[0].Code)
	assert.Equal(t, "c4", out[1].Code)
	assert.Nil(t, out[0].Owned)
	assert.Nil(t, out[1].Price)
	assert.Nil(t, out[1].RentTime)
}

func TestEncodeCredentialsByGroup(t *testing.T) {
	creds := domain.NewCredentials("user@test.com", "password")

	reg, err := Encode(creds, GroupReg)
	require.NoError(t, err)
	assert.JSONEq(t, `{"email":"user@test.com","password":"password"}`, string(reg))

	auth, err := Encode(creds, GroupAuth)
	require.NoError(t, err)
	assert.JSONEq(t, `{"username":"user@test.com","password":"password"}`, string(auth))
}

func TestGroupAllIsPlainJSON(t *testing.T) {
	out, err := Encode(domain.RefreshRequest{RefreshToken: "r1"}, GroupAll)
	require.NoError(t, err)
	assert.JSONEq(t, `{"refresh_token":"r1"}`, string(out))
}

func TestDecodeRequiresPointer(t *testing.T) {
	var out domain.Course
	assert.Error(t, Decode([]byte(`{}`), out, GroupAnon))
	assert.Error(t, Decode([]byte(`not json`), &out, GroupAnon))
}

func TestVisible(t *testing.T) {
	assert.True(t, Visible("", GroupAnon))
	assert.True(t, Visible("anon, owned", GroupOwned))
	assert.False(t, Visible("owned", GroupAnon))
	assert.True(t, Visible("owned", GroupAll))
}
