package main

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"defecttrack/models"

	"github.com/gin-gonic/gin"
)

func uploadFile(t *testing.T, r *gin.Engine, u models.User, fields map[string]string, fileName, mimeType string, data []byte) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+fileName+`"`)
	h.Set("Content-Type", mimeType)
	part, err := mw.CreatePart(h)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/attachments", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	for k, v := range bearerFor(t, u) {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAttachments_UploadValidation(t *testing.T) {
	env := setupTestEnv(t)

	defect := env.seedDefect(t, nil)
	payload := []byte{0xFF, 0xD8, 0xFF, 0xE0} // jpeg magic, content is not inspected

	// Neither parent given.
	w := uploadFile(t, env.router, env.eng1, nil, "photo.jpg", "image/jpeg", payload)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("upload without parent expected 400 got=%d body=%s", w.Code, w.Body.String())
	}

	// Both parents given.
	w = uploadFile(t, env.router, env.eng1, map[string]string{
		"defect_id":  itoa(defect.ID),
		"comment_id": "1",
	}, "photo.jpg", "image/jpeg", payload)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("upload with both parents expected 400 got=%d", w.Code)
	}

	// Disallowed MIME type.
	w = uploadFile(t, env.router, env.eng1, map[string]string{"defect_id": itoa(defect.ID)},
		"report.pdf", "application/pdf", payload)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("upload pdf expected 400 got=%d body=%s", w.Code, w.Body.String())
	}

	// Missing parent row.
	w = uploadFile(t, env.router, env.eng1, map[string]string{"defect_id": "9999"},
		"photo.jpg", "image/jpeg", payload)
	if w.Code != http.StatusNotFound {
		t.Fatalf("upload to missing defect expected 404 got=%d", w.Code)
	}

	// Valid upload.
	w = uploadFile(t, env.router, env.eng1, map[string]string{"defect_id": itoa(defect.ID)},
		"photo.jpg", "image/jpeg", payload)
	if w.Code != http.StatusCreated {
		t.Fatalf("upload status=%d body=%s", w.Code, w.Body.String())
	}
	var attachment models.Attachment
	if err := json.Unmarshal(w.Body.Bytes(), &attachment); err != nil {
		t.Fatalf("unmarshal attachment: %v", err)
	}
	if attachment.FileSize != int64(len(payload)) {
		t.Fatalf("file_size=%d, want %d", attachment.FileSize, len(payload))
	}
	if attachment.DefectID == nil || *attachment.DefectID != defect.ID {
		t.Fatalf("defect_id not set on attachment")
	}

	// Download round-trips the stored bytes and MIME type.
	w = doRequest(t, env.router, http.MethodGet, "/attachments/"+itoa(attachment.ID), nil, bearerFor(t, env.observer))
	if w.Code != http.StatusOK {
		t.Fatalf("download status=%d", w.Code)
	}
	if got := w.Header().Get("Content-Type"); got != "image/jpeg" {
		t.Fatalf("download content type=%q", got)
	}
	if !bytes.Equal(w.Body.Bytes(), payload) {
		t.Fatalf("downloaded bytes differ from upload")
	}

	// Listing omits file data but keeps metadata.
	w = doRequest(t, env.router, http.MethodGet, "/defects/"+itoa(defect.ID)+"/attachments", nil, bearerFor(t, env.eng1))
	if w.Code != http.StatusOK {
		t.Fatalf("list attachments status=%d", w.Code)
	}
	var listed []models.Attachment
	if err := json.Unmarshal(w.Body.Bytes(), &listed); err != nil {
		t.Fatalf("unmarshal attachments: %v", err)
	}
	if len(listed) != 1 || listed[0].FileName != "photo.jpg" {
		t.Fatalf("listed attachments=%+v", listed)
	}
}

func TestAttachments_SizeLimit(t *testing.T) {
	env := setupTestEnv(t)

	defect := env.seedDefect(t, nil)
	oversized := make([]byte, 10*1024*1024+1)

	w := uploadFile(t, env.router, env.eng1, map[string]string{"defect_id": itoa(defect.ID)},
		"big.png", "image/png", oversized)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("oversized upload expected 400 got=%d body=%s", w.Code, w.Body.String())
	}
}

func TestAttachments_DeletePermissions(t *testing.T) {
	env := setupTestEnv(t)

	defect := env.seedDefect(t, func(d *models.Defect) {
		d.AuthorID = env.eng1.ID
	})

	seedAttachment := func() models.Attachment {
		defectID := defect.ID
		a := models.Attachment{
			FileName: "photo.jpg",
			MimeType: "image/jpeg",
			FileSize: 4,
			FileData: []byte{1, 2, 3, 4},
			DefectID: &defectID,
		}
		if err := env.db.Create(&a).Error; err != nil {
			t.Fatalf("seed attachment: %v", err)
		}
		return a
	}

	// Unrelated engineer cannot delete.
	a := seedAttachment()
	w := doRequest(t, env.router, http.MethodDelete, "/attachments/"+itoa(a.ID), nil, bearerFor(t, env.eng2))
	if w.Code != http.StatusForbidden {
		t.Fatalf("delete by unrelated engineer expected 403 got=%d", w.Code)
	}

	// Defect author can.
	w = doRequest(t, env.router, http.MethodDelete, "/attachments/"+itoa(a.ID), nil, bearerFor(t, env.eng1))
	if w.Code != http.StatusOK {
		t.Fatalf("delete by author status=%d body=%s", w.Code, w.Body.String())
	}

	// Managers always can.
	a = seedAttachment()
	w = doRequest(t, env.router, http.MethodDelete, "/attachments/"+itoa(a.ID), nil, bearerFor(t, env.manager))
	if w.Code != http.StatusOK {
		t.Fatalf("delete by manager status=%d body=%s", w.Code, w.Body.String())
	}

	// Comment attachments follow the comment's author.
	comment := models.Comment{DefectID: defect.ID, AuthorID: env.eng2.ID, Content: "фото"}
	if err := env.db.Create(&comment).Error; err != nil {
		t.Fatalf("seed comment: %v", err)
	}
	commentID := comment.ID
	ca := models.Attachment{
		FileName:  "note.png",
		MimeType:  "image/png",
		FileSize:  4,
		FileData:  []byte{5, 6, 7, 8},
		CommentID: &commentID,
	}
	if err := env.db.Create(&ca).Error; err != nil {
		t.Fatalf("seed comment attachment: %v", err)
	}

	w = doRequest(t, env.router, http.MethodDelete, "/attachments/"+itoa(ca.ID), nil, bearerFor(t, env.eng1))
	if w.Code != http.StatusForbidden {
		t.Fatalf("delete comment attachment by non-author expected 403 got=%d", w.Code)
	}
	w = doRequest(t, env.router, http.MethodDelete, "/attachments/"+itoa(ca.ID), nil, bearerFor(t, env.eng2))
	if w.Code != http.StatusOK {
		t.Fatalf("delete comment attachment by author status=%d body=%s", w.Code, w.Body.String())
	}
}
