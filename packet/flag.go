package packet

// Flag is the packet flags byte.
type Flag uint8

// IsValid reports whether the payload valid bit is set.
func (f Flag) IsValid() bool {
	return f&FlagValid != 0
}

// IsTruncated reports whether the raster truncated bit is set.
func (f Flag) IsTruncated() bool {
	return f&FlagTruncated != 0
}

// WithValid returns f with the valid bit set.
func (f Flag) WithValid() Flag {
	return f | FlagValid
}

// WithTruncated returns f with the truncated bit set or cleared.
func (f Flag) WithTruncated(truncated bool) Flag {
	if truncated {
		return f | FlagTruncated
	}

	return f &^ FlagTruncated
}
