package api

import (
	"fmt"

	"tryon-studio/internal/domain/entities"
	"tryon-studio/internal/domain/valueobjects"
)

type imageView struct {
	URL       string `json:"url"`
	MediaType string `json:"mediaType"`
	Size      int    `json:"size"`
}

// stateResponse is the JSON shape of a session snapshot.
type stateResponse struct {
	SessionID       string     `json:"sessionId"`
	Version         uint64     `json:"version"`
	Phase           string     `json:"phase"`
	Mode            string     `json:"mode"`
	Busy            bool       `json:"busy"`
	Pending         string     `json:"pending,omitempty"`
	ErrorMessage    string     `json:"errorMessage,omitempty"`
	EditInstruction string     `json:"editInstruction"`
	UserPhoto       *imageView `json:"userPhoto,omitempty"`
	GarmentPhoto    *imageView `json:"garmentPhoto,omitempty"`
	Result          *imageView `json:"result,omitempty"`
	ResultResponse  string     `json:"resultResponse,omitempty"`
	CanGenerate     bool       `json:"canGenerate"`
	CanEdit         bool       `json:"canEdit"`
}

func newStateResponse(s entities.SessionState) stateResponse {
	return stateResponse{
		SessionID:       s.SessionID,
		Version:         s.Version,
		Phase:           string(s.Phase()),
		Mode:            string(s.Mode),
		Busy:            s.Busy,
		Pending:         string(s.Pending),
		ErrorMessage:    s.Error,
		EditInstruction: s.EditInstruction,
		UserPhoto:       newImageView("user", s.Version, s.UserPhoto),
		GarmentPhoto:    newImageView("garment", s.Version, s.GarmentPhoto),
		Result:          newImageView("result", s.Version, s.Result),
		ResultResponse:  s.ResultResponse,
		CanGenerate:     s.CanGenerate(),
		CanEdit:         s.CanEnterEdit(),
	}
}

// the version query keeps browsers from showing a replaced image
func newImageView(slot string, version uint64, img *valueobjects.ImageData) *imageView {
	if img == nil {
		return nil
	}
	return &imageView{
		URL:       fmt.Sprintf("/api/images/%s?v=%d", slot, version),
		MediaType: img.MediaType(),
		Size:      img.Size(),
	}
}
