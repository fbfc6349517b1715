package entity

// BrandVoice describes how generated content should sound
type BrandVoice struct {
	OrgName  string              `json:"org_name" validate:"required"`
	Tone     string              `json:"tone" validate:"required"`
	Values   []string            `json:"values" validate:"dive,required"`
	Avoid    []string            `json:"avoid" validate:"dive,required"`
	Audience string              `json:"audience"`
	Hashtags map[string][]string `json:"hashtags"`
}

// Merge fills the fields left empty in bv from cur
func (bv *BrandVoice) Merge(cur *BrandVoice) {
	if cur == nil {
		return
	}
	if bv.OrgName == "" {
		bv.OrgName = cur.OrgName
	}
	if bv.Tone == "" {
		bv.Tone = cur.Tone
	}
	if bv.Values == nil {
		bv.Values = cur.Values
	}
	if bv.Avoid == nil {
		bv.Avoid = cur.Avoid
	}
	if bv.Audience == "" {
		bv.Audience = cur.Audience
	}
	if bv.Hashtags == nil {
		bv.Hashtags = cur.Hashtags
	}
}

// DefaultBrandVoice is used when no brand voice file exists or it cannot be read
func DefaultBrandVoice() *BrandVoice {
	return &BrandVoice{
		OrgName:  "Coalition",
		Tone:     "Professional but approachable",
		Values:   []string{"transparency", "community", "ethics"},
		Avoid:    []string{"corporate jargon", "fear-based messaging"},
		Audience: "Community members, advocates, and allies",
		Hashtags: map[string][]string{},
	}
}

// GenerateInput represents input for drafting content
type GenerateInput struct {
	Topic     string
	Platforms []string
	Tone      string
	Org       string
}
