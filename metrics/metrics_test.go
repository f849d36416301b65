package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(DeniedTotal.WithLabelValues("thumbnail", "not_owner"))
	RecordDenied("thumbnail", "not_owner")
	assert.Equal(t, before+1, testutil.ToFloat64(DeniedTotal.WithLabelValues("thumbnail", "not_owner")))

	before = testutil.ToFloat64(RendersTotal.WithLabelValues("ok"))
	RecordRender("ok", 0.01)
	assert.Equal(t, before+1, testutil.ToFloat64(RendersTotal.WithLabelValues("ok")))

	before = testutil.ToFloat64(UploadsTotal.WithLabelValues("rejected"))
	RecordUpload("rejected")
	assert.Equal(t, before+1, testutil.ToFloat64(UploadsTotal.WithLabelValues("rejected")))

	before = testutil.ToFloat64(DownloadsTotal.WithLabelValues("original"))
	RecordDownload("original")
	assert.Equal(t, before+1, testutil.ToFloat64(DownloadsTotal.WithLabelValues("original")))
}
