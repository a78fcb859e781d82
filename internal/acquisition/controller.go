package acquisition

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"smartmob-dashboard/internal/backend"
	"smartmob-dashboard/internal/media"
	"smartmob-dashboard/internal/table"
	"smartmob-dashboard/internal/util"

	"github.com/gin-gonic/gin"
)

type ImageService interface {
	Resolve(raw string) media.Ref
	Open(ctx context.Context, ref media.Ref) (io.ReadCloser, string, error)
	WriteZip(ctx context.Context, out io.Writer, entries []media.Entry) error
}

type AcquisitionController struct {
	Service AcquisitionServiceAPI
	Images  ImageService
}

func respondError(c *gin.Context, err error) {
	status := backend.HTTPStatus(err)
	if errors.Is(err, ErrKeysRequired) {
		status = http.StatusBadRequest
	}
	c.JSON(status, gin.H{"error": backend.ErrorMessage(err)})
}

func (ac *AcquisitionController) listed(c *gin.Context, rows []Acquisition, message string) {
	q, err := table.ParseQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": message,
		"data":    table.Apply(rows, Columns, q),
	})
}

func (ac *AcquisitionController) GetLatest(c *gin.Context) {
	rows, err := ac.Service.Latest(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	ac.listed(c, rows, "Acquisizioni caricate con successo")
}

func (ac *AcquisitionController) GetLatestSingle(c *gin.Context) {
	a, err := ac.Service.LatestSingle(c.Request.Context(), c.Param("line"), c.Param("station"))
	if err != nil {
		respondError(c, err)
		return
	}
	if a == nil {
		c.JSON(http.StatusOK, backend.Ok[*Acquisition](nil, NoneForPairMessage))
		return
	}
	c.JSON(http.StatusOK, backend.Ok(a, "Acquisizione caricata con successo"))
}

func (ac *AcquisitionController) GetFilter(c *gin.Context) {
	rows, err := ac.Service.Filter(c.Request.Context(), c.Query("codLineaProd"), c.Query("codPostazione"))
	if err != nil {
		respondError(c, err)
		return
	}
	ac.listed(c, rows, "Acquisizioni caricate con successo")
}

func (ac *AcquisitionController) GetRange(c *gin.Context) {
	r, err := util.ParseDateRange(c.Query("startDate"), c.Query("endDate"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !r.HasStart || !r.HasEnd {
		c.JSON(http.StatusBadRequest, gin.H{"error": "startDate and endDate are required"})
		return
	}
	rows, err := ac.Service.Range(c.Request.Context(), r)
	if err != nil {
		respondError(c, err)
		return
	}
	ac.listed(c, rows, "Acquisizioni per periodo caricate con successo")
}

func (ac *AcquisitionController) GetPage(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "page must be a positive integer"})
		return
	}
	size, err := strconv.Atoi(c.DefaultQuery("pageSize", "50"))
	if err != nil || size < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pageSize must be a positive integer"})
		return
	}

	p, err := ac.Service.List(c.Request.Context(), page, size)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Acquisizioni caricate con successo", "data": p})
}

func parseID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(strings.TrimSpace(c.Param("id")))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "valid acquisition id is required"})
		return 0, false
	}
	return id, true
}

func (ac *AcquisitionController) GetByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	a, err := ac.Service.ByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Acquisizione caricata con successo", "data": a})
}

// Export streams the backend's own export file.
func (ac *AcquisitionController) Export(c *gin.Context) {
	resp, err := ac.Service.Export(c.Request.Context(), c.DefaultQuery("format", "csv"))
	if err != nil {
		if strings.HasPrefix(err.Error(), "unsupported export format") {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		respondError(c, err)
		return
	}
	defer resp.Body.Close()

	extra := map[string]string{}
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		extra["Content-Disposition"] = cd
	}
	ctype := resp.Header.Get("Content-Type")
	if ctype == "" {
		ctype = "application/octet-stream"
	}
	c.DataFromReader(http.StatusOK, resp.ContentLength, ctype, resp.Body, extra)
}

func (ac *AcquisitionController) GetImage(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	slot, ok := ParseSlot(c.Param("slot"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "slot must be superiore, frontale or box"})
		return
	}

	a, err := ac.Service.ByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	ref := ac.Images.Resolve(a.Image(slot))
	switch ref.Kind {
	case media.KindNone:
		c.JSON(http.StatusNotFound, gin.H{"error": media.ErrNoImage.Error()})
		return
	case media.KindUnresolved:
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "riferimento immagine non risolvibile", "raw": ref.Raw})
		return
	case media.KindHTTP:
		if c.Query("redirect") == "1" {
			c.Redirect(http.StatusFound, ref.URL)
			return
		}
	}

	rc, ctype, err := ac.Images.Open(c.Request.Context(), ref)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	defer rc.Close()
	c.DataFromReader(http.StatusOK, -1, ctype, rc, nil)
}

// GetImageArchive zips the available images of one acquisition.
func (ac *AcquisitionController) GetImageArchive(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	a, err := ac.Service.ByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	entries := make([]media.Entry, 0, len(Slots))
	available := 0
	for _, slot := range Slots {
		ref := ac.Images.Resolve(a.Image(slot))
		if ref.Kind == media.KindHTTP || ref.Kind == media.KindGCS {
			available++
		}
		entries = append(entries, media.Entry{Name: fmt.Sprintf("acq_%d_%s", a.ID, slot), Ref: ref})
	}
	if available == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": media.ErrNoImage.Error()})
		return
	}

	c.Header("Content-Type", "application/zip")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="acquisizione_%d.zip"`, a.ID))
	c.Status(http.StatusOK)
	if err := ac.Images.WriteZip(c.Request.Context(), c.Writer, entries); err != nil {
		_ = c.Error(err)
	}
}
