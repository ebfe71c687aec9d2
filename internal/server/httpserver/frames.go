package httpserver

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

func (s *Server) handleProcessVideo(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "multipart field 'file' is required")
	}

	interval, err := strconv.Atoi(c.FormValue("interval"))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "interval must be an integer")
	}

	src, err := fh.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot read uploaded file")
	}
	defer src.Close()

	username, _ := c.Get(ctxUsername).(string)

	url, err := s.frames.Process(c.Request().Context(), src, fh.Filename, fh.Size, interval, username)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message":  "file processed and stored successfully",
		"file_url": url,
	})
}

func (s *Server) handleListArchives(c echo.Context) error {
	urls, err := s.archives.List(c.Request().Context(), pathUsername(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"archives": urls})
}

func (s *Server) handleDeleteArchive(c echo.Context) error {
	username := pathUsername(c)
	filename := c.Param("filename")

	if err := s.archives.Delete(c.Request().Context(), username, filename); err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "archive deleted successfully"})
}
