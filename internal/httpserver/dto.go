package httpserver

type CreateSubjectRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

type PatchSubjectRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}
