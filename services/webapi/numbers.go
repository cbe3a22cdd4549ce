package webapi

import (
	"dhapi/lib/numberstore"
	"errors"
	"net/http"
	"strconv"
)

type saveNumbersRequest struct {
	Numbers []int  `json:"numbers"`
	Name    string `json:"name"`
}

func (s *Server) handleListNumbers(w http.ResponseWriter, r *http.Request, sess *session) {
	items, err := s.store.List(r.Context(), sess.username)
	if err != nil {
		writeFailure(r.Context(), w, err, http.StatusInternalServerError)
		return
	}
	if items == nil {
		items = []numberstore.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"items":   items,
		"count":   len(items),
	})
}

func (s *Server) handleSaveNumbers(w http.ResponseWriter, r *http.Request, sess *session) {
	var req saveNumbersRequest
	err := decodeBody(w, r, &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "잘못된 요청입니다.")
		return
	}
	item, err := s.store.Create(r.Context(), sess.username, req.Numbers, req.Name)
	if errors.Is(err, numberstore.ErrInvalidNumbers) || errors.Is(err, numberstore.ErrNameTooLong) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		writeFailure(r.Context(), w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"item":    item,
	})
}

func (s *Server) handleDeleteNumbers(w http.ResponseWriter, r *http.Request, sess *session) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "잘못된 번호 ID입니다.")
		return
	}
	deleted, err := s.store.Delete(r.Context(), sess.username, id)
	if err != nil {
		writeFailure(r.Context(), w, err, http.StatusInternalServerError)
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "삭제할 번호를 찾지 못했습니다.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
