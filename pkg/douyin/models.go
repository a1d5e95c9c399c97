package douyin

// CatalogPage is one page of a creator's posted videos as returned by the
// catalog API. StatusCode is the API's own result field: 0 means success
// even when the HTTP status is 200.
type CatalogPage struct {
	StatusCode int     `json:"status_code"`
	AwemeList  []Aweme `json:"aweme_list"`
	MaxCursor  int64   `json:"max_cursor"`
	HasMore    bool    `json:"has_more"`
}

// Aweme is a single posted video.
type Aweme struct {
	AwemeID    string `json:"aweme_id"`
	Desc       string `json:"desc"`
	CreateTime int64  `json:"create_time"`
	Author     Author `json:"author"`
	Video      Video  `json:"video"`
}

// Author identifies the creator of an item.
type Author struct {
	UID      string `json:"uid"`
	SecUID   string `json:"sec_uid"`
	Nickname string `json:"nickname"`
}

// Video carries the playable addresses of an item.
type Video struct {
	PlayAddr PlayAddr `json:"play_addr"`
}

// PlayAddr is the platform's address list for one rendition.
type PlayAddr struct {
	URI     string   `json:"uri"`
	URLList []string `json:"url_list"`
}

// PlayURL returns the first playable address of the item, or "" when the
// platform sent none.
func (a *Aweme) PlayURL() string {
	if a == nil || len(a.Video.PlayAddr.URLList) == 0 {
		return ""
	}
	return a.Video.PlayAddr.URLList[0]
}
