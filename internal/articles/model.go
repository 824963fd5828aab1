package articles

// Article is one entry of the site's blog list. The JSON shape is the
// contract with the landing page and the admin panel.
type Article struct {
	ID       int    `json:"id"`
	Title    string `json:"title"`
	Image    string `json:"image"`
	Category string `json:"category"`
	Date     string `json:"date"`
	ReadTime string `json:"readTime"`
	URL      string `json:"url"`
}
