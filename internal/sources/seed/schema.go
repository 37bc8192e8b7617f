package seed

// Entry is one store in the seed file
type Entry struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	ShopID   string `yaml:"shop_id"`
	URL      string `yaml:"url"`
	Notes    string `yaml:"notes"`
	FollowUp string `yaml:"follow_up"`
	Status   string `yaml:"status"`
}

// File is the root structure of the seed YAML.
//
//	stores:
//	  - name: Noodle Bar
//	    shop_id: "88"
//	    url: https://shop.example/88
//	    follow_up: 2026-10-17T09:00
type File struct {
	Stores []Entry `yaml:"stores"`
}
