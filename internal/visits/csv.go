package visits

import (
	"bytes"
	"encoding/csv"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sgs-visits/backend/internal/models"
)

// csvHeader fixes the export column order. Consumers parse by position.
var csvHeader = []string{
	"id", "childName", "className", "fatherName", "phoneNumber",
	"email", "visitorCount", "visitorType", "visited", "createdAt",
}

// writeCSV renders the listing as a CSV attachment. encoding/csv quotes
// fields containing commas, quotes or newlines and doubles internal quotes.
func writeCSV(c *gin.Context, records []models.VisitRecord) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	_ = w.Write(csvHeader)
	for i := range records {
		rec := &records[i]
		_ = w.Write([]string{
			rec.ID.String(),
			rec.ChildName,
			rec.ClassName,
			rec.FatherName,
			rec.PhoneNumber,
			rec.Email,
			strconv.Itoa(rec.VisitorCount),
			rec.VisitorType,
			strconv.FormatBool(rec.Visited),
			rec.CreatedAt.Format(time.RFC3339),
		})
	}
	w.Flush()

	c.Header("Content-Disposition", `attachment; filename="visits.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}
