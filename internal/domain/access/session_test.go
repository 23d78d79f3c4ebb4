package access

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(minutes float64) time.Time {
	return t0.Add(time.Duration(minutes * float64(time.Minute)))
}

func TestSegmentChainedGap(t *testing.T) {
	w := Windower{Duration: 10 * time.Minute}

	// each hit is within 10 minutes of the previous one, so the chain holds
	// even though the last is 36 minutes after the first
	sessions := w.Segment([]time.Time{at(0), at(9), at(18), at(27), at(36)})
	require.Len(t, sessions, 1)
	assert.Equal(t, at(0), sessions[0].Start)
	assert.Equal(t, at(36), sessions[0].End)
	assert.Equal(t, 5, sessions[0].Hits)
}

func TestSegmentBoundary(t *testing.T) {
	w := Windower{Duration: 10 * time.Minute}

	assert.Equal(t, 1, w.Count([]time.Time{at(0), at(10)}), "gap equal to the window stays in session")
	assert.Equal(t, 2, w.Count([]time.Time{at(0), at(10).Add(time.Nanosecond)}))
}

func TestSegmentSortsInput(t *testing.T) {
	w := Windower{Duration: 10 * time.Minute}
	in := []time.Time{at(45), at(0), at(5), at(30)}

	sessions := w.Segment(in)
	require.Len(t, sessions, 3)
	assert.Equal(t, at(0), sessions[0].Start)
	assert.Equal(t, 2, sessions[0].Hits)
	assert.Equal(t, at(30), sessions[1].Start)
	assert.Equal(t, at(45), sessions[2].Start)
	assert.Equal(t, at(45), in[0], "input slice is left untouched")
}

func TestSegmentEmpty(t *testing.T) {
	w := Windower{Duration: time.Minute}
	assert.Nil(t, w.Segment(nil))
	assert.Equal(t, 0, w.Count(nil))
}

func TestActive(t *testing.T) {
	w := Windower{Duration: 10 * time.Minute}
	assert.True(t, w.Active(at(0), at(10)))
	assert.False(t, w.Active(at(0), at(10).Add(time.Second)))
}

func TestGroup(t *testing.T) {
	w := Windower{Duration: 10 * time.Minute}
	uid := int64(7)

	entries := []AccessLog{
		{ID: 1, FileID: "f", ClientIP: "1.1.1.1", Granted: true, Method: MethodView, CreatedAt: at(0)},
		{ID: 2, FileID: "f", ConsumerID: &uid, ClientIP: "1.1.1.1", Granted: true, Method: MethodView, CreatedAt: at(1)},
		{ID: 3, FileID: "f", ClientIP: "1.1.1.1", Granted: true, Method: MethodDownload, CreatedAt: at(4)},
		{ID: 4, FileID: "f", ClientIP: "2.2.2.2", Granted: false, Method: MethodView, FailureReason: ReasonWrongPassword, CreatedAt: at(5)},
		{ID: 5, FileID: "f", ClientIP: "1.1.1.1", Granted: true, Method: MethodValidate, CreatedAt: at(6)},
		{ID: 6, FileID: "f", ClientIP: "1.1.1.1", Granted: true, Method: MethodView, CreatedAt: at(30)},
	}

	rows := w.Group(entries)
	require.Len(t, rows, 5)

	anon := rows[0]
	assert.Equal(t, "1.1.1.1", anon.ClientIP)
	assert.Nil(t, anon.ConsumerID)
	assert.True(t, anon.Viewed)
	assert.True(t, anon.Downloaded)
	assert.Equal(t, 2, anon.Hits)
	assert.Equal(t, at(0), anon.FirstAt)
	assert.Equal(t, at(4), anon.LastAt)

	signedIn := rows[1]
	require.NotNil(t, signedIn.ConsumerID)
	assert.Equal(t, uid, *signedIn.ConsumerID)
	assert.Equal(t, 1, signedIn.Hits)

	assert.Equal(t, ReasonWrongPassword, rows[2].FailureReason)
	assert.False(t, rows[2].Viewed)
	assert.Equal(t, MethodValidate, rows[3].Method)

	assert.Equal(t, at(30), rows[4].FirstAt)
	assert.True(t, rows[4].Viewed)
	assert.False(t, rows[4].Downloaded)
}

func TestIdentity(t *testing.T) {
	assert.Equal(t, "user:5", IdentityFor(5, "1.2.3.4").Key())
	assert.Equal(t, "ip:1.2.3.4", IdentityFor(0, "1.2.3.4").Key())
	assert.Empty(t, SignedIn(5).IP())
	assert.False(t, Anonymous("x").IsSignedIn())

	uid := int64(3)
	assert.Equal(t, SignedIn(3), (&AccessLog{ConsumerID: &uid, ClientIP: "9.9.9.9"}).Identity())
	assert.Equal(t, Anonymous("9.9.9.9"), (&AccessLog{ClientIP: "9.9.9.9"}).Identity())
}
