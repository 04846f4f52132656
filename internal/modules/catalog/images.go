package catalog

import "sort"

// DisplayImage is a product image with the variant context it came from.
type DisplayImage struct {
	ImageURL         string  `json:"image_url"`
	IsPrimary        bool    `json:"is_primary"`
	VariantID        string  `json:"variant_id"`
	VariantColor     *string `json:"variant_color,omitempty"`
	VariantIsDefault bool    `json:"variant_is_default"`
}

// SelectDisplayOrder flattens every variant's images into display order:
// primary images first, then images of the default variant, otherwise the
// original order. Images sharing a URL keep only the first entry in that
// order, so the VariantID, VariantColor and IsPrimary reported for a shared
// URL are those of its highest-ranked occurrence. An empty result means the
// product has no image.
func SelectDisplayOrder(variants []ProductVariant) []DisplayImage {
	var all []DisplayImage
	for _, v := range variants {
		for _, img := range v.Images {
			all = append(all, DisplayImage{
				ImageURL:         img.ImageURL,
				IsPrimary:        img.IsPrimary,
				VariantID:        v.ID,
				VariantColor:     v.ColorName,
				VariantIsDefault: v.IsDefault,
			})
		}
	}

	sort.SliceStable(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if a.IsPrimary != b.IsPrimary {
			return a.IsPrimary
		}
		return a.VariantIsDefault && !b.VariantIsDefault
	})

	out := make([]DisplayImage, 0, len(all))
	seen := make(map[string]struct{}, len(all))
	for _, img := range all {
		if _, dup := seen[img.ImageURL]; dup {
			continue
		}
		seen[img.ImageURL] = struct{}{}
		out = append(out, img)
	}
	return out
}

// CoverImage is the first image in display order.
func CoverImage(variants []ProductVariant) (DisplayImage, bool) {
	imgs := SelectDisplayOrder(variants)
	if len(imgs) == 0 {
		return DisplayImage{}, false
	}
	return imgs[0], true
}
