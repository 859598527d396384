package validation

import "testing"

func TestValidateCameraRegistration(t *testing.T) {
	tests := []struct {
		name    string
		in      CameraRegistration
		wantErr bool
	}{
		{
			name: "valid",
			in:   CameraRegistration{StableString: "camera_1", DisplayName: "Front Door"},
		},
		{
			name:    "stable string with dash is rejected",
			in:      CameraRegistration{StableString: "camera-1", DisplayName: "Front Door"},
			wantErr: true,
		},
		{
			name:    "empty display name is rejected",
			in:      CameraRegistration{StableString: "camera_1", DisplayName: ""},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCameraRegistration(tt.in)
			if tt.wantErr && err == nil {
				t.Fatalf("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateEventCreate(t *testing.T) {
	badConfidence := 150.0
	goodConfidence := 87.5

	tests := []struct {
		name    string
		in      EventCreate
		wantErr bool
	}{
		{
			name: "valid without confidence",
			in:   EventCreate{CameraStableString: "camera_1", MotionScore: 187.5},
		},
		{
			name: "valid with confidence",
			in:   EventCreate{CameraStableString: "camera_1", MotionScore: 0, Confidence: &goodConfidence},
		},
		{
			name:    "negative motion score rejected",
			in:      EventCreate{CameraStableString: "camera_1", MotionScore: -1},
			wantErr: true,
		},
		{
			name:    "confidence out of range rejected",
			in:      EventCreate{CameraStableString: "camera_1", MotionScore: 1, Confidence: &badConfidence},
			wantErr: true,
		},
		{
			name:    "malformed camera string rejected",
			in:      EventCreate{CameraStableString: "cam era!", MotionScore: 1},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEventCreate(tt.in)
			if tt.wantErr && err == nil {
				t.Fatalf("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateFileStatusUpdate(t *testing.T) {
	dur := 61.2

	tests := []struct {
		name    string
		in      FileStatusUpdate
		wantErr bool
	}{
		{
			name: "valid image_a update",
			in:   FileStatusUpdate{Artifact: ArtifactImageA, Path: "camera_1/pictures/1_20251126_143022_a.jpg"},
		},
		{
			name: "valid video_h264 with duration",
			in:   FileStatusUpdate{Artifact: ArtifactVideoH264, Path: "camera_1/videos/1_video.h264", Duration: &dur},
		},
		{
			name:    "duration on non-video artifact rejected",
			in:      FileStatusUpdate{Artifact: ArtifactImageA, Path: "camera_1/pictures/1_a.jpg", Duration: &dur},
			wantErr: true,
		},
		{
			name:    "absolute path rejected",
			in:      FileStatusUpdate{Artifact: ArtifactImageA, Path: "/camera_1/pictures/1_a.jpg"},
			wantErr: true,
		},
		{
			name:    "path traversal rejected",
			in:      FileStatusUpdate{Artifact: ArtifactImageA, Path: "camera_1/../etc/passwd"},
			wantErr: true,
		},
		{
			name:    "unknown artifact kind rejected",
			in:      FileStatusUpdate{Artifact: "video_mp4", Path: "camera_1/videos/1.mp4"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFileStatusUpdate(tt.in)
			if tt.wantErr && err == nil {
				t.Fatalf("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateEventStatusUpdate(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		wantErr bool
	}{
		{name: "complete is valid", target: EventStatusComplete},
		{name: "interrupted is valid", target: EventStatusInterrupted},
		{name: "failed is valid", target: EventStatusFailed},
		{name: "processing is not a legal target", target: EventStatusProcessing, wantErr: true},
		{name: "unknown status rejected", target: "cancelled", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEventStatusUpdate(EventStatusUpdate{TargetStatus: tt.target})
			if tt.wantErr && err == nil {
				t.Fatalf("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateLogLine(t *testing.T) {
	tests := []struct {
		name    string
		in      LogLineInput
		wantErr bool
	}{
		{name: "valid camera source", in: LogLineInput{Source: "camera_1", Level: LogLevelInfo, Message: "a"}},
		{name: "valid central source", in: LogLineInput{Source: "central", Level: LogLevelError, Message: "c"}},
		{name: "unknown level rejected", in: LogLineInput{Source: "central", Level: "DEBUG", Message: "x"}, wantErr: true},
		{name: "empty message rejected", in: LogLineInput{Source: "central", Level: LogLevelInfo, Message: ""}, wantErr: true},
		{name: "malformed source rejected", in: LogLineInput{Source: "not a camera", Level: LogLevelInfo, Message: "x"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLogLine(tt.in)
			if tt.wantErr && err == nil {
				t.Fatalf("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidator_MultipleErrorsJoin(t *testing.T) {
	v := New()
	v.AddError("a", "bad a", nil)
	v.AddError("b", "bad b", nil)
	err := v.Err()
	if err == nil {
		t.Fatal("expected error")
	}
	ve, ok := err.(Error)
	if !ok {
		t.Fatalf("expected Error type, got %T", err)
	}
	if len(ve.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(ve.Errors))
	}
}
