package pagination

import "testing"

func TestSlice(t *testing.T) {
	items := make([]int, 45)
	for i := range items {
		items[i] = i
	}

	t.Run("defaults", func(t *testing.T) {
		resp := Slice(items, PageRequest{})
		if resp.Page != 1 || resp.PageSize != 20 || len(resp.Data) != 20 {
			t.Errorf("unexpected first page %+v", resp)
		}
		if resp.TotalItems != 45 || resp.TotalPages != 3 {
			t.Errorf("expected 45 items in 3 pages, got %d in %d", resp.TotalItems, resp.TotalPages)
		}
	})

	t.Run("last_page", func(t *testing.T) {
		resp := Slice(items, PageRequest{Page: 3, PageSize: 20})
		if len(resp.Data) != 5 || resp.Data[0] != 40 {
			t.Errorf("unexpected last page %+v", resp.Data)
		}
	})

	t.Run("past_the_end", func(t *testing.T) {
		resp := Slice(items, PageRequest{Page: 9, PageSize: 20})
		if resp.Data == nil || len(resp.Data) != 0 {
			t.Errorf("expected empty non-nil page, got %#v", resp.Data)
		}
	})
}
