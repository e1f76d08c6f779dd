package service

import (
	"reflect"
	"testing"
	"time"

	"fellowship/internal/models"
)

func TestBuildCalendar(t *testing.T) {
	events := []models.Event{
		{ID: "e1", Title: "Prayer Night", StartsAt: time.Date(2024, 2, 9, 19, 0, 0, 0, time.UTC)},
		{ID: "e2", Title: "Youth Rally", StartsAt: time.Date(2024, 2, 9, 10, 0, 0, 0, time.UTC)},
		{ID: "e3", Title: "Leap Day Lunch", StartsAt: time.Date(2024, 2, 29, 12, 0, 0, 0, time.UTC)},
	}
	today := time.Date(2024, 2, 14, 8, 0, 0, 0, time.UTC)

	cal := BuildCalendar(2024, time.February, events, today)

	if len(cal.Days) != 29 {
		t.Fatalf("days = %d, want 29", len(cal.Days))
	}
	if cal.Offset != 4 {
		t.Errorf("offset = %d, want 4 (Thursday)", cal.Offset)
	}
	if got := len(cal.Days[8].Events); got != 2 {
		t.Errorf("events on 2024-02-09 = %d, want 2", got)
	}
	if cal.Days[8].Date != "2024-02-09" {
		t.Errorf("day 9 date = %s", cal.Days[8].Date)
	}
	if !cal.Days[13].IsToday {
		t.Error("2024-02-14 should be flagged as today")
	}
	if cal.Days[0].Events == nil {
		t.Error("empty days should carry an empty slice")
	}
	if got := cal.Days[28].Events; len(got) != 1 || got[0].ID != "e3" {
		t.Errorf("events on 2024-02-29 = %+v", got)
	}

	tests := []struct {
		year   int
		month  time.Month
		days   int
		offset int
	}{
		{2023, time.February, 28, 3},
		{2024, time.September, 30, 0},
		{2025, time.June, 30, 0},
		{2025, time.March, 31, 6},
	}
	for _, tt := range tests {
		t.Run(time.Date(tt.year, tt.month, 1, 0, 0, 0, 0, time.UTC).Format("2006-01"), func(t *testing.T) {
			cal := BuildCalendar(tt.year, tt.month, nil, today)
			if len(cal.Days) != tt.days || cal.Offset != tt.offset {
				t.Errorf("got %d days offset %d, want %d days offset %d", len(cal.Days), cal.Offset, tt.days, tt.offset)
			}
		})
	}
}

func TestRank(t *testing.T) {
	sermons := []models.Sermon{
		{ID: "s1", Title: "Amazing Grace", Speaker: "Pastor John", Description: "A study of hymns"},
		{ID: "s2", Title: "Faith", Speaker: "Pastor Mary", Description: "Saved by grace through faith"},
		{ID: "s3", Title: "Hope", Speaker: "Pastor Mary", Description: "Anchor for the soul"},
	}
	events := []models.Event{
		{ID: "e1", Title: "Grace Night", Location: "Grace Hall", Description: "Worship"},
	}
	meetings := []models.Meeting{
		{ID: "m1", Title: "Bible Study", Host: "Grace Lee", Description: "Romans"},
	}

	results := Rank("grace", sermons, events, meetings)

	var ids []string
	for _, r := range results {
		ids = append(ids, r.ID)
	}
	want := []string{"e1", "s1", "s2", "m1"}
	if !reflect.DeepEqual(ids, want) {
		t.Fatalf("order = %v, want %v", ids, want)
	}
	if results[0].Score != 3 {
		t.Errorf("event score = %d, want 3", results[0].Score)
	}
	if results[1].Description != "By Pastor John: A study of hymns" {
		t.Errorf("sermon description = %q", results[1].Description)
	}
	if results[0].Description != "At Grace Hall: Worship" {
		t.Errorf("event description = %q", results[0].Description)
	}
	if results[3].Description != "Hosted by Grace Lee: Romans" {
		t.Errorf("meeting description = %q", results[3].Description)
	}

	t.Run("title beats description", func(t *testing.T) {
		if results[1].Score <= results[2].Score {
			t.Errorf("title match %d should outrank description match %d", results[1].Score, results[2].Score)
		}
	})

	t.Run("blank query", func(t *testing.T) {
		if got := Rank("   ", sermons, events, meetings); len(got) != 0 {
			t.Errorf("Rank(blank) = %d results, want 0", len(got))
		}
	})

	t.Run("case insensitive", func(t *testing.T) {
		if got := Rank("ANCHOR", sermons, nil, nil); len(got) != 1 || got[0].ID != "s3" {
			t.Errorf("Rank(ANCHOR) = %+v", got)
		}
	})
}

func TestBuildSermonList(t *testing.T) {
	all := []models.Sermon{
		{ID: "1", Series: "Romans", Speaker: "John"},
		{ID: "2", Series: "Psalms", Speaker: "Mary"},
		{ID: "3", Series: "Romans", Speaker: "Mary"},
		{ID: "4", Series: "", Speaker: "John"},
	}

	tests := []struct {
		name    string
		series  string
		speaker string
		want    []string
	}{
		{"no filters", "", "", []string{"1", "2", "3", "4"}},
		{"all means no filter", "All", "all", []string{"1", "2", "3", "4"}},
		{"series", "Romans", "", []string{"1", "3"}},
		{"speaker", "", "Mary", []string{"2", "3"}},
		{"both", "Romans", "Mary", []string{"3"}},
		{"no match", "Genesis", "", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list := buildSermonList(all, tt.series, tt.speaker)
			got := []string{}
			for _, s := range list.Sermons {
				got = append(got, s.ID)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("sermons = %v, want %v", got, tt.want)
			}
			if !reflect.DeepEqual(list.Series, []string{"Romans", "Psalms"}) {
				t.Errorf("series facet = %v", list.Series)
			}
			if !reflect.DeepEqual(list.Speakers, []string{"John", "Mary"}) {
				t.Errorf("speaker facet = %v", list.Speakers)
			}
		})
	}
}

func TestFilterGroups(t *testing.T) {
	all := []models.SmallGroup{
		{ID: "1", Name: "Young Adults", Leader: "Sam", Topic: "Fellowship", Description: "Friday nights"},
		{ID: "2", Name: "Men of Faith", Leader: "Peter", Topic: "Bible Study", Description: "Saturday breakfast"},
		{ID: "3", Name: "Mothers", Leader: "Ruth", Topic: "Bible Study", Description: "Prayer and friday coffee"},
	}

	tests := []struct {
		name   string
		topic  string
		search string
		want   []string
	}{
		{"everything", "All", "", []string{"1", "2", "3"}},
		{"topic", "bible study", "", []string{"2", "3"}},
		{"search name", "", "faith", []string{"2"}},
		{"search leader", "", "RUTH", []string{"3"}},
		{"search description", "", "friday", []string{"1", "3"}},
		{"topic and search", "Bible Study", "friday", []string{"3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list := filterGroups(all, tt.topic, tt.search)
			got := []string{}
			for _, g := range list.Groups {
				got = append(got, g.ID)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("groups = %v, want %v", got, tt.want)
			}
			if !reflect.DeepEqual(list.Topics, []string{"Fellowship", "Bible Study"}) {
				t.Errorf("topics = %v", list.Topics)
			}
		})
	}
}

func TestCanDelete(t *testing.T) {
	tests := []struct {
		name     string
		user     *models.User
		authorID string
		want     bool
	}{
		{"anonymous", nil, "u1", false},
		{"author", &models.User{ID: "u1", Role: models.RoleGuest}, "u1", true},
		{"other member", &models.User{ID: "u2", Role: models.RoleGuest}, "u1", false},
		{"content manager", &models.User{ID: "u3", Role: models.RoleContentManager}, "u1", false},
		{"moderator", &models.User{ID: "u4", Role: models.RoleModerator}, "u1", true},
		{"admin", &models.User{ID: "u5", Role: models.RoleAdmin}, "u1", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanDelete(tt.user, tt.authorID); got != tt.want {
				t.Errorf("CanDelete() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGroupResources(t *testing.T) {
	resources := []models.Resource{
		{ID: "1", Category: "Bible Study"},
		{ID: "2", Category: ""},
		{ID: "3", Category: "Bible Study"},
		{ID: "4", Category: "Youth"},
	}
	groups := groupResources(resources)

	var names []string
	for _, g := range groups {
		names = append(names, g.Category)
	}
	if !reflect.DeepEqual(names, []string{"Bible Study", "General", "Youth"}) {
		t.Fatalf("categories = %v", names)
	}
	if len(groups[0].Resources) != 2 {
		t.Errorf("Bible Study has %d resources, want 2", len(groups[0].Resources))
	}
}

func TestRankBranches(t *testing.T) {
	branches := []models.ChurchBranch{
		{ID: "far", Name: "Kumasi", Lat: 6.6885, Lng: -1.6244, Radius: 5000},
		{ID: "near", Name: "Accra Central", Lat: 5.5600, Lng: -0.2050, Radius: 5000},
		{ID: "small", Name: "Osu Chapel", Lat: 5.5600, Lng: -0.2050, Radius: 500},
	}

	unsorted := rankBranches(branches, nil)
	if unsorted[0].ID != "far" || unsorted[0].DistanceKm != nil {
		t.Errorf("without a point the order and distances should be untouched: %+v", unsorted[0])
	}

	ranked := rankBranches(branches, &Point{Lat: 5.5560, Lng: -0.1969})
	inside := make(map[string]bool)
	for _, b := range ranked {
		inside[b.ID] = b.InsideRadius
	}
	if ranked[2].ID != "far" {
		t.Fatalf("farthest branch = %s, want far", ranked[2].ID)
	}
	if !inside["near"] {
		t.Errorf("caller about 1km away should be inside a 5000m radius")
	}
	if inside["small"] {
		t.Error("caller about 1km away should be outside a 500m radius")
	}
	if inside["far"] {
		t.Error("Kumasi should be outside the radius")
	}
}

func TestParseWhen(t *testing.T) {
	tests := []struct {
		raw     string
		want    time.Time
		wantErr bool
	}{
		{"2024-03-10", time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), false},
		{"2024-03-10T09:30", time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC), false},
		{"2024-03-10T09:30:00Z", time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC), false},
		{" 2024-03-10 18:00 ", time.Date(2024, 3, 10, 18, 0, 0, 0, time.UTC), false},
		{"next sunday", time.Time{}, true},
		{"", time.Time{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := parseWhen("date", tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseWhen() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !got.Equal(tt.want) {
				t.Errorf("parseWhen() = %v, want %v", got, tt.want)
			}
		})
	}
}
