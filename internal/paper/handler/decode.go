package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/papershelf/papershelf/backend/go-services/internal/paper"
)

var errTooLarge = errors.New("request body too large")

// paperBody is the JSON form of a create or update submission.
type paperBody struct {
	Title    *string         `json:"title"`
	Authors  paper.ListField `json:"authors"`
	Abstract *string         `json:"abstract"`
	Journal  *string         `json:"journal"`
	Year     json.RawMessage `json:"year"`
	Tags     paper.ListField `json:"tags"`
}

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "multipart/")
}

func isJSON(c *gin.Context) bool {
	return c.ContentType() == gin.MIMEJSON
}

// decodeFields reads a paper submission from a JSON, multipart or urlencoded body.
// The body is size-capped; multipart files are parsed but not consumed here.
func (h *Handler) decodeFields(c *gin.Context) (paper.Fields, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.upload.MaxBytes)

	if isJSON(c) {
		return decodeJSON(c)
	}

	var err error
	if isMultipart(c) {
		err = c.Request.ParseMultipartForm(multipartMemory)
	} else {
		err = c.Request.ParseForm()
	}
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return paper.Fields{}, errTooLarge
		}
		return paper.Fields{}, fmt.Errorf("%w: %v", paper.ErrInvalidFieldFormat, err)
	}
	return decodeForm(c)
}

func decodeJSON(c *gin.Context) (paper.Fields, error) {
	var body paperBody
	if err := c.ShouldBindJSON(&body); err != nil {
		var mbe *http.MaxBytesError
		switch {
		case errors.As(err, &mbe):
			return paper.Fields{}, errTooLarge
		case errors.Is(err, paper.ErrInvalidFieldFormat):
			return paper.Fields{}, err
		}
		return paper.Fields{}, fmt.Errorf("%w: %v", paper.ErrInvalidFieldFormat, err)
	}
	year, err := jsonYear(body.Year)
	if err != nil {
		return paper.Fields{}, err
	}
	return paper.Fields{
		Title:    body.Title,
		Authors:  body.Authors,
		Abstract: body.Abstract,
		Journal:  body.Journal,
		Year:     year,
		Tags:     body.Tags,
	}, nil
}

// jsonYear accepts a number, a numeric string or null.
func jsonYear(raw json.RawMessage) (*int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("%w: year", paper.ErrInvalidFieldFormat)
		}
		return paper.ParseYear(s)
	}
	var y int
	if err := json.Unmarshal(raw, &y); err != nil {
		return nil, fmt.Errorf("%w: year must be an integer", paper.ErrInvalidFieldFormat)
	}
	return &y, nil
}

func decodeForm(c *gin.Context) (paper.Fields, error) {
	var f paper.Fields
	if v, ok := c.GetPostForm("title"); ok {
		f.Title = &v
	}
	if v, ok := c.GetPostForm("abstract"); ok {
		f.Abstract = &v
	}
	if v, ok := c.GetPostForm("journal"); ok {
		f.Journal = &v
	}
	if v, ok := c.GetPostForm("year"); ok {
		y, err := paper.ParseYear(v)
		if err != nil {
			return paper.Fields{}, err
		}
		f.Year = y
	}
	f.Authors = formList(c, "authors")
	f.Tags = formList(c, "tags")
	return f, nil
}

// formList maps a repeated form field to a sequence and a single value to a
// raw string, so "a, b" and `["a","b"]` both go through the normalizer.
func formList(c *gin.Context, key string) paper.ListField {
	vals, ok := c.GetPostFormArray(key)
	if !ok {
		vals, ok = c.GetPostFormArray(key + "[]")
		if ok {
			return paper.RawSequence(vals)
		}
		return paper.ListField{}
	}
	if len(vals) == 1 {
		return paper.RawString(vals[0])
	}
	return paper.RawSequence(vals)
}
